package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/desertthunder/rango/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PagesCheck requests every page URL and reports which ones are broken.
func (r *Runner) PagesCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	workers := cmd.Int("workers")
	if workers < 1 || workers > tasks.MaxWorkers {
		return fmt.Errorf("%w: --workers must be between 1 and %d", shared.ErrInvalidFlag, tasks.MaxWorkers)
	}
	if cmd.Float("rate") <= 0 {
		return fmt.Errorf("%w: --rate must be positive", shared.ErrInvalidFlag)
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	slug := cmd.String("category")
	pages, err := svc.directory.ListPages(ctx, slug, 0)
	if errors.Is(err, shared.ErrCategoryNotFound) {
		return fmt.Errorf("%w: no category with slug %q", shared.ErrInvalidArgument, slug)
	}
	if err != nil {
		return err
	}

	opts := tasks.LinkCheckOpts{
		NumWorkers: workers,
		RateLimit:  cmd.Float("rate"),
		Timeout:    cmd.Duration("timeout"),
	}
	checker := tasks.NewLinkChecker(nil, shared.WithLogger(r.logger, "task", "linkcheck"))

	if cmd.Bool("json") {
		result, err := checker.Check(ctx, pages, nil, opts)
		if err != nil {
			return err
		}
		return r.writeJSON(result, true)
	}

	if len(pages) == 0 {
		r.writePlain("There are no pages to check.\n")
		return nil
	}

	result, err := r.checkWithProgress(ctx, checker, pages, opts)
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Link Check Complete!")
	r.writePlain("Checked: %d\n", result.Total)
	r.writePlain("Healthy: %d\n", result.Healthy)
	r.writePlain("Broken: %d\n", result.Broken)

	if broken := result.BrokenLinks(); len(broken) > 0 {
		r.writePlain("\nBroken links:\n")
		for _, s := range broken {
			if s.Err != nil {
				r.writePlain("  - %s (%s): %v\n", s.Title, s.URL, s.Err)
			} else {
				r.writePlain("  - %s (%s): HTTP %d\n", s.Title, s.URL, s.StatusCode)
			}
		}
	}
	return nil
}

func (r *Runner) checkWithProgress(ctx context.Context, checker *tasks.LinkChecker, pages []*models.Page, opts tasks.LinkCheckOpts) (*tasks.LinkCheckResult, error) {
	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.QueueLinks:
				r.writePlain("%s\n", update.Message)
			case tasks.CheckLinks:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	start := time.Now()
	result, err := checker.Check(ctx, pages, progress, opts)
	close(progress)
	<-done

	r.logger.Debug("link check finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return result, err
}
