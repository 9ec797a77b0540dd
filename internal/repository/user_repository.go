package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/google/uuid"
)

// userRepository implements UserRepository
type userRepository struct {
	db dbExecutor
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbExecutor) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getOne(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get user", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(id uuid.UUID) (*models.User, error) {
	return r.getOne(`
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1
	`, strings.ToLower(email))
}

// Create creates a new user
func (r *userRepository) Create(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(user.Email)

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return apperrors.Conflict("email already registered", err)
		}
		return apperrors.DatabaseError("failed to create user", err)
	}
	return nil
}

// Update updates an existing user
func (r *userRepository) Update(user *models.User) error {
	user.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE users SET
			email = $2, password_hash = $3, role = $4, updated_at = $5
		WHERE id = $1
	`, user.ID, strings.ToLower(user.Email), user.PasswordHash, user.Role, user.UpdatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to update user", err)
	}
	return checkRowsAffected(result, apperrors.NotFound("user not found", nil))
}

// Delete deletes a user
func (r *userRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete user", err)
	}
	return checkRowsAffected(result, apperrors.NotFound("user not found", nil))
}
