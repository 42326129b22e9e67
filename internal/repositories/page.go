package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
)

const pageColumns = `id, sequence, category_id, title, url, views, created_at, updated_at`

// PageRepository implements [models.Repository] for [models.Page] persistence.
type PageRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Page] = (*PageRepository)(nil)

// NewPageRepository creates a new [PageRepository] with the given database connection
func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

// Create inserts a new page with generated ID and sequence.
//
// The category foreign key is enforced by the database; callers are expected to have resolved the category first.
func (r *PageRepository) Create(page *models.Page) error {
	if err := page.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "pages")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO pages (` + pageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query, id, sequence, page.CategoryID(), page.Title(), page.URL(), page.Views(),
		page.CreatedAt(), page.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	page.SetID(id)
	page.SetSequence(sequence)
	return nil
}

// Get retrieves a page by ID
func (r *PageRepository) Get(id string) (*models.Page, error) {
	return r.scan(r.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id), id)
}

// Update modifies a page's title and url. Views are left untouched; use [PageRepository.IncrementViews].
func (r *PageRepository) Update(page *models.Page) error {
	if err := page.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`UPDATE pages SET title = ?, url = ?, updated_at = ? WHERE id = ?`,
		page.Title(), page.URL(), now, page.ID())
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPageNotFound, page.ID())
	}

	page.SetUpdatedAt(now)
	return nil
}

// IncrementViews adds exactly one view and returns the new count.
func (r *PageRepository) IncrementViews(id string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE pages SET views = views + 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to record page view: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	} else if rows == 0 {
		return 0, fmt.Errorf("%w: %s", shared.ErrPageNotFound, id)
	}

	var views int
	if err := tx.QueryRow(`SELECT views FROM pages WHERE id = ?`, id).Scan(&views); err != nil {
		return 0, fmt.Errorf("failed to read views: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit page view: %w", err)
	}
	return views, nil
}

// List retrieves pages matching the given criteria.
//
// Supported criteria: "category_id" (string), "query" (string, case-insensitive substring of title or url),
// "order_by" ("views", "-views", "title", "-title"), "limit" (int).
func (r *PageRepository) List(criteria map[string]any) ([]*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE 1 = 1`
	args := []any{}

	if categoryID, ok := criteria["category_id"].(string); ok && categoryID != "" {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		pattern := "%" + likeEscape(q) + "%"
		query += ` AND (title LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	query += orderClause(criteria, "views", "title")
	var limit string
	limit, args = limitClause(criteria, args)
	query += limit

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		page, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return pages, nil
}

// Top returns the n most viewed pages.
func (r *PageRepository) Top(n int) ([]*models.Page, error) {
	return r.List(map[string]any{"order_by": "-views", "limit": n})
}

// ListByCategory returns the pages of a category in insertion order.
func (r *PageRepository) ListByCategory(categoryID string) ([]*models.Page, error) {
	return r.List(map[string]any{"category_id": categoryID})
}

func (r *PageRepository) scan(s scanner, key string) (*models.Page, error) {
	var (
		id         string
		sequence   int
		categoryID string
		title      string
		url        string
		views      int
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := s.Scan(&id, &sequence, &categoryID, &title, &url, &views, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPageNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}

	page := models.NewPage(sequence, categoryID, title, url)
	page.SetID(id)
	page.SetViews(views)
	page.SetCreatedAt(createdAt)
	page.SetUpdatedAt(updatedAt)
	return page, nil
}
