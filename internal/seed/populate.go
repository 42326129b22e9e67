package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/repositories"
	"github.com/desertthunder/rango/internal/shared"
)

// ProgressUpdate is sent for every category and page handled by [Populator.Populate].
type ProgressUpdate struct {
	Step    int    // Current step number
	Total   int    // Total steps (categories plus pages)
	Message string // Human-readable message for display
}

// Result summarizes a populate run.
type Result struct {
	CategoriesCreated int
	CategoriesExisted int
	PagesCreated      int
	PagesExisted      int
}

// Populator writes fixtures through the category and page repositories.
type Populator struct {
	categories *repositories.CategoryRepository
	pages      *repositories.PageRepository
}

// NewPopulator creates a [Populator].
func NewPopulator(categories *repositories.CategoryRepository, pages *repositories.PageRepository) *Populator {
	return &Populator{categories: categories, pages: pages}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Populate creates every category and page in fixtures that does not exist yet.
//
// Existing entries are left untouched, including their counters. Fixture likes and views only apply to
// entries created by this run.
func (p *Populator) Populate(ctx context.Context, fixtures *Fixtures, progress chan<- ProgressUpdate) (*Result, error) {
	categories, pages := fixtures.Count()
	total := categories + pages
	result := &Result{}
	step := 0

	for _, cf := range fixtures.Categories {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		step++
		category, created, err := p.category(cf)
		if err != nil {
			return result, err
		}
		if created {
			result.CategoriesCreated++
			sendProgress(progress, ProgressUpdate{Step: step, Total: total, Message: fmt.Sprintf("Created category %s", category.Name())})
		} else {
			result.CategoriesExisted++
			sendProgress(progress, ProgressUpdate{Step: step, Total: total, Message: fmt.Sprintf("Category %s already exists", category.Name())})
		}

		existing, err := p.pages.ListByCategory(category.ID())
		if err != nil {
			return result, err
		}
		titles := make(map[string]bool, len(existing))
		for _, page := range existing {
			titles[page.Title()] = true
		}

		for _, pf := range cf.Pages {
			step++
			if titles[pf.Title] {
				result.PagesExisted++
				sendProgress(progress, ProgressUpdate{Step: step, Total: total, Message: fmt.Sprintf("- %s already exists", pf.Title)})
				continue
			}

			page := models.NewPage(0, category.ID(), pf.Title, pf.URL)
			page.SetViews(pf.Views)
			if err := p.pages.Create(page); err != nil {
				return result, fmt.Errorf("failed to create page %q: %w", pf.Title, err)
			}
			titles[pf.Title] = true
			result.PagesCreated++
			sendProgress(progress, ProgressUpdate{Step: step, Total: total, Message: fmt.Sprintf("- %s", pf.Title)})
		}
	}

	return result, nil
}

// category returns the category matching cf's slug, creating it when absent.
func (p *Populator) category(cf CategoryFixture) (*models.Category, bool, error) {
	candidate := models.NewCategory(0, cf.Name)

	existing, err := p.categories.GetBySlug(candidate.Slug())
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrCategoryNotFound) {
		return nil, false, err
	}

	candidate.SetLikes(cf.Likes)
	if err := p.categories.Create(candidate); err != nil {
		return nil, false, fmt.Errorf("failed to create category %q: %w", cf.Name, err)
	}
	return candidate, true, nil
}
