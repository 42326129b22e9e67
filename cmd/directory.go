package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/rango/internal/formatter"
	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/seed"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/urfave/cli/v3"
)

type categoryRow struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Likes int    `json:"likes"`
}

type pageRow struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Views    int    `json:"views"`
	Category string `json:"category"`
}

// Populate loads seed fixtures, creating what is missing and leaving existing entries untouched.
func (r *Runner) Populate(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	var fixtures *seed.Fixtures
	var err error
	if path := cmd.String("file"); path != "" {
		r.logger.Info("loading seed file", "path", path)
		fixtures, err = seed.LoadFile(path)
	} else {
		fixtures, err = seed.Default()
	}
	if err != nil {
		return err
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	r.writePlain("Populating rango...\n")

	progress := make(chan seed.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := seed.NewPopulator(svc.categories, svc.pages).Populate(ctx, fixtures, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Populate Complete!")
	r.writePlain("Categories: %d created, %d already present\n", result.CategoriesCreated, result.CategoriesExisted)
	r.writePlain("Pages: %d created, %d already present\n", result.PagesCreated, result.PagesExisted)

	r.logger.Info("populate complete", "categories", result.CategoriesCreated, "pages", result.PagesCreated)
	return nil
}

// CategoriesList lists categories with their likes, most liked first.
func (r *Runner) CategoriesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	categories, err := svc.directory.ListCategories(ctx, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]categoryRow, 0, len(categories))
		for _, c := range categories {
			rows = append(rows, categoryRow{Name: c.Name(), Slug: c.Slug(), Likes: c.Likes()})
		}
		return r.writeJSON(rows, true)
	}

	if len(categories) == 0 {
		r.writePlain("There are no categories present.\n")
		return nil
	}

	r.writePlain("Found %d categories:\n\n", len(categories))
	for i, c := range categories {
		r.writePlain("%d. %s\n", i+1, c.Name())
		r.writePlain("   Slug: %s\n", c.Slug())
		r.writePlain("   Likes: %d\n", c.Likes())
	}

	return nil
}

// PagesList lists pages with their views, most viewed first.
func (r *Runner) PagesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}
	slug := cmd.String("category")

	svc, err := r.services()
	if err != nil {
		return err
	}

	pages, err := svc.directory.ListPages(ctx, slug, limit)
	if errors.Is(err, shared.ErrCategoryNotFound) {
		return fmt.Errorf("%w: no category with slug %q", shared.ErrInvalidArgument, slug)
	}
	if err != nil {
		return err
	}

	categories, err := svc.directory.ListCategories(ctx, 0)
	if err != nil {
		return err
	}
	slugs := make(map[string]string, len(categories))
	for _, c := range categories {
		slugs[c.ID()] = c.Slug()
	}

	if cmd.Bool("json") {
		rows := make([]pageRow, 0, len(pages))
		for _, p := range pages {
			rows = append(rows, pageRow{Title: p.Title(), URL: p.URL(), Views: p.Views(), Category: slugs[p.CategoryID()]})
		}
		return r.writeJSON(rows, true)
	}

	if len(pages) == 0 {
		r.writePlain("No pages currently in category.\n")
		return nil
	}

	r.writePlain("Found %d pages:\n\n", len(pages))
	for i, p := range pages {
		r.writePlain("%d. %s\n", i+1, p.Title())
		r.writePlain("   URL: %s\n", p.URL())
		r.writePlain("   Category: %s\n", slugs[p.CategoryID()])
		r.writePlain("   Views: %d\n", p.Views())
	}

	return nil
}

// Export writes every category and its pages in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	export, err := svc.directory.Export(ctx)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.Export(export, format, r.config.Site.Title)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteExport(export, format, output, r.config.Site.Title)
	if err != nil {
		return err
	}

	r.logger.Info("directory exported", "path", path, "format", format)
	r.writeExportSummary(export, path)
	return nil
}

func (r *Runner) writeExportSummary(export *models.DirectoryExport, path string) {
	r.writePlain("✓ Directory exported to %s\n", path)
	r.writePlain("  Categories: %d\n", len(export.Categories))
	r.writePlain("  Pages: %d\n", export.PageCount())
}
