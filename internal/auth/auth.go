// package auth registers accounts, checks credentials and issues the [Principal] that gates every mutating
// directory operation.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/repositories"
	"github.com/desertthunder/rango/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// Principal is an authenticated, active user.
//
// [Service] hands out principals only for existing, active accounts ([Service.Login], [Service.Principal],
// [Service.PrincipalFor]). The fields are exported for templates and logging; code outside this package and its
// tests must obtain principals from the service rather than build them.
type Principal struct {
	UserID   string
	Username string
}

func newPrincipal(u *models.User) *Principal {
	return &Principal{UserID: u.ID(), Username: u.Username()}
}

// Service implements registration and login against the user repository, which also stores profiles.
type Service struct {
	users  *repositories.UserRepository
	cost   int
	logger *log.Logger
}

// NewService creates a [Service] hashing passwords at the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to [bcrypt.DefaultCost].
func NewService(users *repositories.UserRepository, cost int, logger *log.Logger) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost, logger: logger}
}

// Register validates both forms, creates the account and its profile and returns the new user.
//
// Field problems, including a taken username, are returned as *[forms.Errors] and nothing is written.
func (s *Service) Register(ctx context.Context, user forms.UserForm, profile forms.ProfileForm) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs := &forms.Errors{}
	errs.Merge(user.Validate())
	errs.Merge(profile.Validate())

	if !errs.Has("username") {
		_, err := s.users.GetByUsername(user.Username)
		switch {
		case err == nil:
			errs.Merge(takenUsername())
		case !errors.Is(err, shared.ErrUserNotFound):
			return nil, err
		}
	}

	var hash []byte
	if !errs.Has("password") {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(user.Password), s.cost)
		switch {
		case errors.Is(err, bcrypt.ErrPasswordTooLong):
			errs.Add("password", "Ensure this value has at most 72 bytes.")
		case err != nil:
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if errs := errs.OrNil(); errs != nil {
		return nil, errs
	}

	account := models.NewUser(0, user.Username, user.Email, string(hash))
	if _, err := s.users.CreateWithProfile(account, profile.Website, profile.Picture); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, takenUsername()
		}
		return nil, err
	}

	s.logger.Info("registered user", "username", account.Username(), "id", account.ID())
	return account, nil
}

func takenUsername() *forms.Errors {
	errs := &forms.Errors{}
	errs.Add("username", "A user with that username already exists.")
	return errs
}

// Login checks credentials and returns the principal for an active account.
//
// Unknown usernames and wrong passwords both yield [shared.ErrInvalidCredentials]; a correct password for a
// deactivated account yields [shared.ErrAccountDisabled].
func (s *Service) Login(ctx context.Context, username, password string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(username)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, shared.ErrAccountDisabled
	}

	return newPrincipal(user), nil
}

// Principal resolves the user stored in a session into a [Principal].
// Unknown or deactivated users yield [shared.ErrNotAuthenticated].
func (s *Service) Principal(ctx context.Context, userID string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.Get(userID)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: account %s is disabled", shared.ErrNotAuthenticated, user.Username())
	}
	return newPrincipal(user), nil
}

// PrincipalFor issues a principal for an active account without checking its password.
// Only local operator tooling calls this; the web app always goes through [Service.Login].
func (s *Service) PrincipalFor(ctx context.Context, username string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountDisabled, username)
	}
	return newPrincipal(user), nil
}

// Activate re-enables login for username.
func (s *Service) Activate(ctx context.Context, username string) error {
	return s.setActive(ctx, username, true)
}

// Deactivate disables login for username without removing anything.
func (s *Service) Deactivate(ctx context.Context, username string) error {
	return s.setActive(ctx, username, false)
}

func (s *Service) setActive(ctx context.Context, username string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return err
	}

	user.SetActive(active)
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.logger.Info("updated account", "username", username, "active", active)
	return nil
}
