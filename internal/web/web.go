// Package web implements the rango site: server-rendered pages over the directory and auth services.
//
// # Routes
//
//	GET       /                          → top categories and pages (counts a visit)
//	GET       /about/                    → about page with the visitor's visit count (counts a visit)
//	GET       /category/{slug}/          → category and its pages, or a "does not exist" notice
//	GET|POST  /add_category/             → category form (login required)
//	GET|POST  /category/{slug}/add_page/ → page form (login required)
//	GET|POST  /register/                 → account and profile form
//	GET|POST  /login/                    → login form, throttled per client on POST
//	GET       /logout/                   → flushes the session (login required)
//	GET       /restricted/               → gated content (login required)
//	POST      /like/ category_id=        → adds a like, answers the new count as text (login required)
//	GET       /goto/?page_id=            → counts a view and redirects to the page URL
//	GET       /search/?query=            → category and page search
//	GET       /suggest/?suggestion=      → category list fragment for the sidebar
//
// # Sessions
//
// One cookie session (gorilla/sessions) per visitor holds the visit counter ("visits", "last_visit") and, once
// logged in, "user_id". [App.Authenticate] resolves "user_id" into an [auth.Principal] stored in the request
// context; handlers pass it to the directory service, which rejects a nil principal.
//
// # CSRF
//
// Every route runs behind gorilla/csrf. Forms carry the token in a hidden "csrfmiddlewaretoken" field and htmx
// requests send it in the X-CSRFToken header, which base.html configures for the whole page.
//
// # Templates
//
// Pages are html/template files embedded into the binary. Each page is parsed together with base.html and
// partials.html; fragments such as the suggestion list are rendered on their own.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/directory"
	"github.com/desertthunder/rango/internal/server"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/gorilla/sessions"
)

// Options are the collaborators of an [App].
type Options struct {
	Site      shared.SiteConfig
	Session   shared.SessionConfig
	Directory *directory.Service
	Auth      *auth.Service
	Throttle  *server.Throttle // optional; limits login attempts
	Logger    *log.Logger
}

// App serves the site.
type App struct {
	site      shared.SiteConfig
	session   string
	directory *directory.Service
	auth      *auth.Service
	store     sessions.Store
	csrf      server.Middleware
	throttle  *server.Throttle
	renderer  *Renderer
	logger    *log.Logger
	now       func() time.Time
}

// New creates an [App], parsing its templates and configuring the cookie store from opts.Session.
func New(opts Options) (*App, error) {
	if opts.Directory == nil || opts.Auth == nil {
		return nil, fmt.Errorf("%w: web app needs directory and auth services", shared.ErrInvalidConfig)
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &App{
		site:      opts.Site,
		session:   opts.Session.Name,
		directory: opts.Directory,
		auth:      opts.Auth,
		store:     NewCookieStore(opts.Session),
		csrf:      newCSRF(opts.Session, logger),
		throttle:  opts.Throttle,
		renderer:  renderer,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// NewCookieStore creates the signed cookie store for the session settings.
func NewCookieStore(cfg shared.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Mount registers every route of the site on router.
func (a *App) Mount(router *server.BasicRouter) {
	open := server.Chain(a.csrf, a.Authenticate)
	gated := server.Chain(a.csrf, a.Authenticate, a.RequireLogin)
	tracked := server.Chain(a.csrf, a.Authenticate, a.TrackVisits)

	router.Handle(http.MethodGet, "/{$}", tracked(http.HandlerFunc(a.index)))
	router.Handle(http.MethodGet, "/about/{$}", tracked(http.HandlerFunc(a.about)))
	router.Handle(http.MethodGet, "/category/{slug}/{$}", open(http.HandlerFunc(a.showCategory)))

	router.Handle(http.MethodGet, "/add_category/{$}", gated(http.HandlerFunc(a.addCategoryForm)))
	router.Handle(http.MethodPost, "/add_category/{$}", gated(http.HandlerFunc(a.addCategory)))
	router.Handle(http.MethodGet, "/category/{slug}/add_page/{$}", gated(http.HandlerFunc(a.addPageForm)))
	router.Handle(http.MethodPost, "/category/{slug}/add_page/{$}", gated(http.HandlerFunc(a.addPage)))

	router.Handle(http.MethodGet, "/register/{$}", open(http.HandlerFunc(a.registerForm)))
	router.Handle(http.MethodPost, "/register/{$}", open(http.HandlerFunc(a.register)))
	router.Handle(http.MethodGet, "/login/{$}", open(http.HandlerFunc(a.loginForm)))

	login := open(http.HandlerFunc(a.login))
	if a.throttle != nil {
		login = a.throttle.Middleware()(login)
	}
	router.Handle(http.MethodPost, "/login/{$}", login)

	router.Handle(http.MethodGet, "/logout/{$}", gated(http.HandlerFunc(a.logout)))
	router.Handle(http.MethodGet, "/restricted/{$}", gated(http.HandlerFunc(a.restricted)))

	router.Handle(http.MethodPost, "/like/{$}", gated(http.HandlerFunc(a.likeCategory)))
	router.Handle(http.MethodGet, "/goto/{$}", open(http.HandlerFunc(a.gotoPage)))
	router.Handle(http.MethodGet, "/search/{$}", open(http.HandlerFunc(a.search)))
	router.Handle(http.MethodGet, "/suggest/{$}", open(http.HandlerFunc(a.suggest)))
}

type contextKey int

const (
	principalKey contextKey = iota
	visitsKey
)

// PrincipalFrom returns the authenticated principal of the request, or nil.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey).(*auth.Principal)
	return p
}
