package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/desertthunder/rango/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal browser over the directory.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	svc, err := r.services()
	if err != nil {
		return err
	}

	var principal *auth.Principal
	if username := cmd.String("user"); username != "" {
		if principal, err = svc.auth.PrincipalFor(ctx, username); err != nil {
			return fmt.Errorf("cannot browse as %s: %w", username, err)
		}
	}

	model := ui.NewModel(ctx, svc.directory, ui.Options{Principal: principal, Open: shared.OpenBrowser})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
