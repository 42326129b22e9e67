package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
)

const categoryColumns = `id, sequence, name, slug, likes, created_at, updated_at`

// CategoryRepository implements [models.Repository] for [models.Category] persistence.
type CategoryRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Category] = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new [CategoryRepository] with the given database connection
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category with generated ID and sequence in a single statement.
func (r *CategoryRepository) Create(category *models.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "categories")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query, id, sequence, category.Name(), category.Slug(), category.Likes(),
		category.CreatedAt(), category.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	category.SetID(id)
	category.SetSequence(sequence)
	return nil
}

// Get retrieves a category by ID
func (r *CategoryRepository) Get(id string) (*models.Category, error) {
	row := r.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return r.scan(row, id)
}

// GetBySlug retrieves a category by its slug
func (r *CategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	row := r.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return r.scan(row, slug)
}

// Exists reports whether a category already uses name or slug.
func (r *CategoryRepository) Exists(name, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE name = ? OR slug = ?)`, name, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

// Update renames a category. Likes are left untouched; use [CategoryRepository.IncrementLikes].
func (r *CategoryRepository) Update(category *models.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`UPDATE categories SET name = ?, slug = ?, updated_at = ? WHERE id = ?`,
		category.Name(), category.Slug(), now, category.ID())
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, category.ID())
	}

	category.SetUpdatedAt(now)
	return nil
}

// IncrementLikes adds exactly one like and returns the new count.
func (r *CategoryRepository) IncrementLikes(id string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE categories SET likes = likes + 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to like category: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	} else if rows == 0 {
		return 0, fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, id)
	}

	var likes int
	if err := tx.QueryRow(`SELECT likes FROM categories WHERE id = ?`, id).Scan(&likes); err != nil {
		return 0, fmt.Errorf("failed to read likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit like: %w", err)
	}
	return likes, nil
}

// List retrieves categories matching the given criteria.
//
// Supported criteria: "name_prefix" (string), "query" (string, case-insensitive substring),
// "order_by" ("likes", "-likes", "name", "-name"), "limit" (int).
func (r *CategoryRepository) List(criteria map[string]any) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE 1 = 1`
	args := []any{}

	if prefix, ok := criteria["name_prefix"].(string); ok && prefix != "" {
		query += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, likeEscape(prefix)+"%")
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		query += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscape(q)+"%")
	}

	query += orderClause(criteria, "likes", "name")
	var limit string
	limit, args = limitClause(criteria, args)
	query += limit

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

// Top returns the n most liked categories.
func (r *CategoryRepository) Top(n int) ([]*models.Category, error) {
	return r.List(map[string]any{"order_by": "-likes", "limit": n})
}

// scan reads a category row; key names the lookup in not-found errors.
func (r *CategoryRepository) scan(s scanner, key string) (*models.Category, error) {
	var (
		id        string
		sequence  int
		name      string
		slug      string
		likes     int
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &sequence, &name, &slug, &likes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	category := models.NewCategory(sequence, name)
	category.SetID(id)
	category.SetSlug(slug)
	category.SetLikes(likes)
	category.SetCreatedAt(createdAt)
	category.SetUpdatedAt(updatedAt)
	return category, nil
}
