package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/desertthunder/rango/internal/shared"
	"github.com/desertthunder/rango/internal/visits"
	"github.com/gorilla/sessions"
)

const userIDKey = "user_id"

// sessionFor returns the visitor's session. A cookie that fails to decode is replaced by a fresh session.
func (a *App) sessionFor(r *http.Request) *sessions.Session {
	session, err := a.store.Get(r, a.session)
	if err != nil {
		a.logger.Warn("discarding unreadable session", "error", err)
	}
	return session
}

func (a *App) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}
}

// Authenticate resolves the session's user into a principal on the request context.
//
// A session pointing at a missing or deactivated user is logged out.
func (a *App) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := a.sessionFor(r)

		userID, _ := session.Values[userIDKey].(string)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := a.auth.Principal(r.Context(), userID)
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			a.logger.Info("ending session of unavailable user", "user_id", userID, "error", err)
			delete(session.Values, userIDKey)
			a.saveSession(w, r, session)
		case err != nil:
			a.logger.Error("failed to resolve session user", "user_id", userID, "error", err)
		default:
			r = r.WithContext(context.WithValue(r.Context(), principalKey, p))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireLogin redirects anonymous requests to the login page, remembering where they were going.
func (a *App) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TrackVisits advances the session's visit counter and stores the result on the request context.
//
// Malformed counter values are logged and treated as absent. The session is saved before the handler runs.
func (a *App) TrackVisits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := a.sessionFor(r)

		state, err := visits.FromSession(session.Values)
		if err != nil {
			a.logger.Warn("resetting malformed visit counter", "error", err)
		}

		state = visits.Track(state, a.now())
		state.Apply(session.Values)
		a.saveSession(w, r, session)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitsKey, state)))
	})
}

// VisitsFrom returns the visit counter tracked for the request; zero when the route is not tracked.
func VisitsFrom(ctx context.Context) visits.State {
	s, _ := ctx.Value(visitsKey).(visits.State)
	return s
}
