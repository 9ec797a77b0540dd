package catalog

// Catalog is an immutable snapshot of the fund knowledge base
type Catalog struct {
	Version      string        `json:"version" yaml:"version"`
	Institutions []Institution `json:"institutions" yaml:"institutions"`
}

// Defect is a fund record skipped for not conforming to the schema
type Defect struct {
	FundID        string `json:"fund_id"`
	InstitutionID string `json:"institution_id"`
	Reason        string `json:"reason"`
}

// Funds flattens the catalog in insertion order. Each copy carries its
// institution id (when the record omits it) and institution kind.
func (c *Catalog) Funds() []PolicyFundKnowledge {
	if c == nil {
		return nil
	}
	var out []PolicyFundKnowledge
	for _, inst := range c.Institutions {
		for _, f := range inst.Funds {
			if f.InstitutionID == "" {
				f.InstitutionID = inst.ID
			}
			f.InstitutionKind = inst.Kind
			out = append(out, f)
		}
	}
	return out
}

// ValidFunds returns the funds that pass Validate, in order, plus one Defect per rejected record
func (c *Catalog) ValidFunds() ([]PolicyFundKnowledge, []Defect) {
	all := c.Funds()
	valid := make([]PolicyFundKnowledge, 0, len(all))
	var defects []Defect
	seen := make(map[string]bool, len(all))

	for _, f := range all {
		if err := Validate(f); err != nil {
			defects = append(defects, Defect{FundID: f.ID, InstitutionID: f.InstitutionID, Reason: err.Error()})
			continue
		}
		if seen[f.ID] {
			defects = append(defects, Defect{FundID: f.ID, InstitutionID: f.InstitutionID, Reason: "duplicate fund id"})
			continue
		}
		seen[f.ID] = true
		valid = append(valid, f)
	}
	return valid, defects
}

// Fund looks up a fund by id
func (c *Catalog) Fund(id string) (PolicyFundKnowledge, bool) {
	for _, f := range c.Funds() {
		if f.ID == id {
			return f, true
		}
	}
	return PolicyFundKnowledge{}, false
}

// Institution looks up an institution by id
func (c *Catalog) Institution(id string) (Institution, bool) {
	if c == nil {
		return Institution{}, false
	}
	for _, inst := range c.Institutions {
		if inst.ID == id {
			return inst, true
		}
	}
	return Institution{}, false
}

// FundCount returns the number of fund records, valid or not
func (c *Catalog) FundCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, inst := range c.Institutions {
		n += len(inst.Funds)
	}
	return n
}
