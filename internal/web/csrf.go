package web

import (
	"crypto/sha256"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rango/internal/server"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/gorilla/csrf"
)

const (
	csrfField  = "csrfmiddlewaretoken"
	csrfHeader = "X-CSRFToken"
)

// newCSRF returns middleware that rejects state-changing requests without a valid token.
//
// The token key is derived from the session secret. Requests arriving without TLS are marked as plaintext unless
// cookies are configured as secure, in which case a TLS-terminating proxy is assumed.
func newCSRF(cfg shared.SessionConfig, logger *log.Logger) server.Middleware {
	key := sha256.Sum256([]byte("rango csrf\x00" + cfg.Secret))
	protect := csrf.Protect(key[:],
		csrf.Path("/"),
		csrf.Secure(cfg.Secure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfField),
		csrf.RequestHeader(csrfHeader),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, "CSRF verification failed. Request aborted.", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && !cfg.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}
