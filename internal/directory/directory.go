// package directory implements the category and page operations of the site.
//
// Reads are open to everyone. Every operation that writes requires an [auth.Principal]; a nil principal is
// rejected with [shared.ErrNotAuthenticated] before any validation or storage access.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/repositories"
	"github.com/desertthunder/rango/internal/shared"
)

const (
	DefaultTopN     = 5
	SearchLimit     = 20
	SuggestionLimit = 8
)

// CategoryView is a category with its pages. Both are nil when the category does not exist.
type CategoryView struct {
	Category *models.Category
	Pages    []*models.Page
}

// Found reports whether the category exists.
func (v CategoryView) Found() bool { return v.Category != nil }

// Listing is the home page content: the most liked categories and the most viewed pages.
type Listing struct {
	Categories []*models.Category
	Pages      []*models.Page
}

// SearchResults holds the matches for a query.
type SearchResults struct {
	Query      string
	Categories []*models.Category
	Pages      []*models.Page
}

// Empty reports whether nothing matched.
func (r SearchResults) Empty() bool { return len(r.Categories) == 0 && len(r.Pages) == 0 }

// Service implements the directory operations on top of the category and page repositories.
type Service struct {
	categories *repositories.CategoryRepository
	pages      *repositories.PageRepository
	topN       int
	logger     *log.Logger
}

// NewService creates a [Service] whose listings hold topN entries ([DefaultTopN] when topN is not positive).
func NewService(categories *repositories.CategoryRepository, pages *repositories.PageRepository, topN int, logger *log.Logger) *Service {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{categories: categories, pages: pages, topN: topN, logger: logger}
}

// CreateCategory validates the form and stores a new category with no likes.
//
// A name whose slug is already taken is reported as a field error on "name".
func (s *Service) CreateCategory(ctx context.Context, p *auth.Principal, form forms.CategoryForm) (*models.Category, error) {
	if p == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs != nil {
		return nil, errs
	}

	category := models.NewCategory(0, form.Name)

	exists, err := s.categories.Exists(category.Name(), category.Slug())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateCategory()
	}

	if err := s.categories.Create(category); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, duplicateCategory()
		}
		return nil, err
	}

	s.logger.Info("created category", "name", category.Name(), "slug", category.Slug(), "by", p.Username)
	return category, nil
}

func duplicateCategory() *forms.Errors {
	errs := &forms.Errors{}
	errs.Add("name", "Category with this name already exists.")
	return errs
}

// CreatePage adds a page to the category identified by slug.
//
// The category is resolved before the form is looked at: an unknown slug returns [shared.ErrCategoryNotFound]
// and nothing is written. New pages always start with zero views.
func (s *Service) CreatePage(ctx context.Context, p *auth.Principal, slug string, form forms.PageForm) (*models.Page, error) {
	if p == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	category, err := s.categories.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs != nil {
		return nil, errs
	}

	page := models.NewPage(0, category.ID(), form.Title, form.URL)
	if err := s.pages.Create(page); err != nil {
		return nil, err
	}

	s.logger.Info("created page", "title", page.Title(), "category", category.Slug(), "by", p.Username)
	return page, nil
}

// Category resolves a slug to its category.
func (s *Service) Category(ctx context.Context, slug string) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.categories.GetBySlug(slug)
}

// ShowCategory returns the category for slug with its pages in insertion order.
// An unknown slug is not an error: the returned view reports Found() == false.
func (s *Service) ShowCategory(ctx context.Context, slug string) (CategoryView, error) {
	category, err := s.Category(ctx, slug)
	if errors.Is(err, shared.ErrCategoryNotFound) {
		return CategoryView{}, nil
	}
	if err != nil {
		return CategoryView{}, err
	}

	pages, err := s.pages.ListByCategory(category.ID())
	if err != nil {
		return CategoryView{}, err
	}
	return CategoryView{Category: category, Pages: pages}, nil
}

// Index returns the top categories by likes and the top pages by views, ties broken by insertion order.
func (s *Service) Index(ctx context.Context) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	categories, err := s.categories.Top(s.topN)
	if err != nil {
		return Listing{}, err
	}

	pages, err := s.pages.Top(s.topN)
	if err != nil {
		return Listing{}, err
	}

	return Listing{Categories: categories, Pages: pages}, nil
}

// ListCategories returns categories ordered by likes, most liked first. A limit of zero or less returns all of them.
func (s *Service) ListCategories(ctx context.Context, limit int) ([]*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := map[string]any{"order_by": "-likes"}
	if limit > 0 {
		criteria["limit"] = limit
	}
	return s.categories.List(criteria)
}

// ListPages returns pages ordered by views, most viewed first, optionally restricted to the category with slug.
func (s *Service) ListPages(ctx context.Context, slug string, limit int) ([]*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := map[string]any{"order_by": "-views"}
	if slug != "" {
		c, err := s.Category(ctx, slug)
		if err != nil {
			return nil, err
		}
		criteria["category_id"] = c.ID()
	}
	if limit > 0 {
		criteria["limit"] = limit
	}
	return s.pages.List(criteria)
}

// LikeCategory records one like for the category and returns its new count.
func (s *Service) LikeCategory(ctx context.Context, p *auth.Principal, categoryID string) (int, error) {
	if p == nil {
		return 0, shared.ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	likes, err := s.categories.IncrementLikes(categoryID)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("liked category", "id", categoryID, "likes", likes, "by", p.Username)
	return likes, nil
}

// VisitPage records one view of the page and returns it so the caller can follow its URL.
func (s *Service) VisitPage(ctx context.Context, pageID string) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.pages.IncrementViews(pageID); err != nil {
		return nil, err
	}
	return s.pages.Get(pageID)
}

// Search matches query case-insensitively against category names and page titles and URLs.
// A blank query matches nothing.
func (s *Service) Search(ctx context.Context, query string) (SearchResults, error) {
	query = strings.TrimSpace(query)
	results := SearchResults{Query: query}
	if query == "" {
		return results, nil
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	var err error
	results.Categories, err = s.categories.List(map[string]any{"query": query, "order_by": "-likes", "limit": SearchLimit})
	if err != nil {
		return results, fmt.Errorf("failed to search categories: %w", err)
	}

	results.Pages, err = s.pages.List(map[string]any{"query": query, "order_by": "-views", "limit": SearchLimit})
	if err != nil {
		return results, fmt.Errorf("failed to search pages: %w", err)
	}

	return results, nil
}

// SuggestCategories returns up to [SuggestionLimit] categories whose name starts with prefix.
// A blank prefix suggests the most liked categories.
func (s *Service) SuggestCategories(ctx context.Context, prefix string) ([]*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return s.categories.Top(SuggestionLimit)
	}
	return s.categories.List(map[string]any{"name_prefix": prefix, "order_by": "name", "limit": SuggestionLimit})
}

// Export returns every category with its pages, for the export command.
func (s *Service) Export(ctx context.Context) (*models.DirectoryExport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categories, err := s.categories.List(nil)
	if err != nil {
		return nil, err
	}

	export := &models.DirectoryExport{Categories: make([]models.CategoryExport, 0, len(categories))}
	for _, c := range categories {
		pages, err := s.pages.ListByCategory(c.ID())
		if err != nil {
			return nil, err
		}
		export.Categories = append(export.Categories, models.NewCategoryExport(c, pages))
	}
	return export, nil
}
