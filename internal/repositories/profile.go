package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
)

const profileColumns = `user_id, website, picture, created_at, updated_at`

// ProfileRepository implements [models.Repository] for [models.UserProfile] persistence.
// Profiles are keyed by their owning user's ID.
type ProfileRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.UserProfile] = (*ProfileRepository)(nil)

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *models.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO user_profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, profile.UserID(), profile.Website(), profile.Picture(),
		profile.CreatedAt(), profile.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Get retrieves the profile of the user with the given ID
func (r *ProfileRepository) Get(userID string) (*models.UserProfile, error) {
	row := r.db.QueryRow(`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID)
	return r.scan(row, userID)
}

func (r *ProfileRepository) Update(profile *models.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`UPDATE user_profiles SET website = ?, picture = ?, updated_at = ? WHERE user_id = ?`,
		profile.Website(), profile.Picture(), now, profile.UserID())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrProfileNotFound, profile.UserID())
	}

	profile.SetUpdatedAt(now)
	return nil
}

// List retrieves profiles, optionally only those with a "website" set (criteria "has_website": true).
func (r *ProfileRepository) List(criteria map[string]any) ([]*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles`
	if has, ok := criteria["has_website"].(bool); ok && has {
		query += ` WHERE website != ''`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		profile, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return profiles, nil
}

func (r *ProfileRepository) scan(s scanner, key string) (*models.UserProfile, error) {
	var (
		userID    string
		website   string
		picture   string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&userID, &website, &picture, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile := models.NewUserProfile(userID, website, picture)
	profile.SetCreatedAt(createdAt)
	profile.SetUpdatedAt(updatedAt)
	return profile, nil
}
