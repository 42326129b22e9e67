package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/repositories"
	"github.com/desertthunder/rango/internal/shared"
	tu "github.com/desertthunder/rango/internal/testing"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *repositories.ProfileRepository) {
	t.Helper()
	db := tu.SetupTestDB(t)
	profiles := repositories.NewProfileRepository(db)
	return NewService(repositories.NewUserRepository(db), bcrypt.MinCost, tu.NewTestLogger()), profiles
}

func register(t *testing.T, s *Service, username, password string) {
	t.Helper()
	_, err := s.Register(context.Background(), forms.UserForm{Username: username, Password: password}, forms.ProfileForm{})
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and profile", func(t *testing.T) {
		s, profiles := newTestService(t)

		user, err := s.Register(ctx,
			forms.UserForm{Username: "leifos", Email: "leif@example.com", Password: "rango"},
			forms.ProfileForm{Website: "tangowithdjango.com"},
		)
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.PasswordHash() == "rango" {
			t.Error("password must be stored hashed")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte("rango")) != nil {
			t.Error("stored hash does not match password")
		}

		profile, err := profiles.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get profile: %v", err)
		}
		if profile.Website() != "http://tangowithdjango.com" {
			t.Errorf("expected normalized website, got %s", profile.Website())
		}
	})

	t.Run("rejects taken username", func(t *testing.T) {
		s, _ := newTestService(t)
		register(t, s, "leifos", "rango")

		_, err := s.Register(ctx, forms.UserForm{Username: "leifos", Password: "other"}, forms.ProfileForm{})

		var errs *forms.Errors
		if !errors.As(err, &errs) {
			t.Fatalf("expected form errors, got %v", err)
		}
		if !errs.Has("username") {
			t.Errorf("expected username error, got %v", errs)
		}
	})

	t.Run("concurrent registrations of one username", func(t *testing.T) {
		s, _ := newTestService(t)

		const attempts = 4
		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Register(ctx, forms.UserForm{Username: "leifos", Password: "rango"}, forms.ProfileForm{})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			var formErrs *forms.Errors
			switch {
			case err == nil:
				created++
			case errors.As(err, &formErrs) && formErrs.Has("username"):
			default:
				t.Errorf("expected a username field error, got %v", err)
			}
		}
		if created != 1 {
			t.Errorf("expected exactly one account, got %d", created)
		}
	})

	t.Run("collects errors from both forms", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.Register(ctx, forms.UserForm{}, forms.ProfileForm{Website: "ftp://nope"})

		var errs *forms.Errors
		if !errors.As(err, &errs) {
			t.Fatalf("expected form errors, got %v", err)
		}
		for _, field := range []string{"username", "password", "website"} {
			if !errs.Has(field) {
				t.Errorf("expected error on %s", field)
			}
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	register(t, s, "leifos", "rango")

	t.Run("valid credentials", func(t *testing.T) {
		p, err := s.Login(ctx, "leifos", "rango")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if p.Username != "leifos" || p.UserID == "" {
			t.Errorf("unexpected principal %+v", p)
		}
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "leifos", "tango"},
		{"unknown user", "nobody", "rango"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	t.Run("disabled account", func(t *testing.T) {
		if err := s.Deactivate(ctx, "leifos"); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		if _, err := s.Login(ctx, "leifos", "rango"); !errors.Is(err, shared.ErrAccountDisabled) {
			t.Errorf("expected ErrAccountDisabled, got %v", err)
		}
		if _, err := s.Login(ctx, "leifos", "wrong"); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
		}

		if err := s.Activate(ctx, "leifos"); err != nil {
			t.Fatalf("Activate failed: %v", err)
		}
		if _, err := s.Login(ctx, "leifos", "rango"); err != nil {
			t.Errorf("expected login after activation, got %v", err)
		}
	})
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	register(t, s, "leifos", "rango")

	p, err := s.Login(ctx, "leifos", "rango")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	t.Run("resolves active user", func(t *testing.T) {
		got, err := s.Principal(ctx, p.UserID)
		if err != nil {
			t.Fatalf("Principal failed: %v", err)
		}
		if *got != *p {
			t.Errorf("expected %+v, got %+v", p, got)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := s.Principal(ctx, "missing"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("deactivated user", func(t *testing.T) {
		if err := s.Deactivate(ctx, "leifos"); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		if _, err := s.Principal(ctx, p.UserID); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Principal(cctx, p.UserID); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSetActiveUnknownUser(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.Deactivate(context.Background(), "nobody"); !errors.Is(err, shared.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPrincipalFor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	register(t, s, "leifos", "rango")

	p, err := s.PrincipalFor(ctx, "leifos")
	if err != nil {
		t.Fatalf("PrincipalFor failed: %v", err)
	}
	if p.Username != "leifos" || p.UserID == "" {
		t.Errorf("unexpected principal %+v", p)
	}

	if _, err := s.PrincipalFor(ctx, "nobody"); !errors.Is(err, shared.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	if err := s.Deactivate(ctx, "leifos"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := s.PrincipalFor(ctx, "leifos"); !errors.Is(err, shared.ErrAccountDisabled) {
		t.Errorf("expected ErrAccountDisabled, got %v", err)
	}
}
