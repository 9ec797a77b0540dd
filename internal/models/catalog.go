package models

import "time"

// CatalogVersion describes one stored catalog document
type CatalogVersion struct {
	Version   string    `json:"version" db:"version"`
	FundCount int       `json:"fund_count" db:"fund_count"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
