package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
)

const userColumns = `id, sequence, username, email, password_hash, is_active, created_at, updated_at`

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.User] = (*UserRepository)(nil)

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query, id, sequence, user.Username(), user.Email(), user.PasswordHash(), user.IsActive(),
		user.CreatedAt(), user.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.SetID(id)
	user.SetSequence(sequence)
	return nil
}

// CreateWithProfile inserts user and its profile in one transaction; either both rows are written or neither is.
func (r *UserRepository) CreateWithProfile(user *models.User, website, picture string) (*models.UserProfile, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	profile := models.NewUserProfile(id, website, picture)

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.Exec(query, id, sequence, user.Username(), user.Email(), user.PasswordHash(), user.IsActive(),
		user.CreatedAt(), user.UpdatedAt()); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	query = `INSERT INTO user_profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.Exec(query, profile.UserID(), profile.Website(), profile.Picture(),
		profile.CreatedAt(), profile.UpdatedAt()); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user transaction: %w", err)
	}

	user.SetID(id)
	user.SetSequence(sequence)
	return profile, nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.scan(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id), id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.scan(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username), username)
}

// Update modifies an existing user's email, password hash and active flag
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	query := `UPDATE users SET email = ?, password_hash = ?, is_active = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Exec(query, user.Email(), user.PasswordHash(), user.IsActive(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID())
	}

	user.SetUpdatedAt(now)
	return nil
}

// List retrieves all users matching the given criteria.
//
// Supported criteria: "username" (string), "active" (bool).
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1 = 1`
	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}

	if active, ok := criteria["active"].(bool); ok {
		query += " AND is_active = ?"
		args = append(args, active)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func (r *UserRepository) scan(s scanner, key string) (*models.User, error) {
	var (
		id           string
		sequence     int
		username     string
		email        string
		passwordHash string
		active       bool
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := s.Scan(&id, &sequence, &username, &email, &passwordHash, &active, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(sequence, username, email, passwordHash)
	user.SetID(id)
	user.SetActive(active)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	return user, nil
}
