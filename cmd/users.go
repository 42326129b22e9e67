package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/urfave/cli/v3"
)

// UsersCreate registers an account with an empty or given profile.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	user, err := svc.auth.Register(ctx,
		forms.UserForm{Username: cmd.String("username"), Email: cmd.String("email"), Password: cmd.String("password")},
		forms.ProfileForm{Website: cmd.String("website")},
	)

	var formErrs *forms.Errors
	if errors.As(err, &formErrs) {
		r.writeFormErrors(formErrs)
		return fmt.Errorf("%w: account not created", shared.ErrInvalidArgument)
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Created account %s\n", user.Username())
	return nil
}

// UsersActivate allows a deactivated account to log in again.
func (r *Runner) UsersActivate(ctx context.Context, cmd *cli.Command) error {
	return r.setActive(ctx, cmd, true)
}

// UsersDeactivate stops an account from logging in and invalidates its sessions.
func (r *Runner) UsersDeactivate(ctx context.Context, cmd *cli.Command) error {
	return r.setActive(ctx, cmd, false)
}

func (r *Runner) setActive(ctx context.Context, cmd *cli.Command, active bool) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	username := strings.TrimSpace(cmd.StringArg("username"))
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	svc, err := r.services()
	if err != nil {
		return err
	}

	if active {
		err = svc.auth.Activate(ctx, username)
	} else {
		err = svc.auth.Deactivate(ctx, username)
	}
	if err != nil {
		return err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	r.writePlain("✓ Account %s %s\n", username, state)
	return nil
}

func (r *Runner) writeFormErrors(errs *forms.Errors) {
	for _, msg := range errs.NonField {
		r.writePlain("  - %s\n", msg)
	}
	for _, field := range errs.SortedFields() {
		for _, msg := range errs.Get(field) {
			r.writePlain("  - %s: %s\n", field, msg)
		}
	}
}
