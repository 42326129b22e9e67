package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/gorilla/csrf"
)

// view is the data every template receives.
type view struct {
	Site      shared.SiteConfig
	User      *auth.Principal
	Visits    int
	Path      string
	CSRFField template.HTML
	CSRFToken string
	Data      any
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	v := view{
		Site:      a.site,
		User:      PrincipalFrom(r.Context()),
		Visits:    VisitsFrom(r.Context()).Visits,
		Path:      r.URL.Path,
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Data:      data,
	}
	if err := a.renderer.Render(w, status, name, v); err != nil {
		a.serverError(w, r, err)
	}
}

func (a *App) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	listing, err := a.directory.Index(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "index.html", listing)
}

func (a *App) about(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "about.html", nil)
}

func (a *App) showCategory(w http.ResponseWriter, r *http.Request) {
	category, err := a.directory.ShowCategory(r.Context(), r.PathValue("slug"))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "category.html", category)
}

type categoryFormData struct {
	Form   forms.CategoryForm
	Errors *forms.Errors
}

func (a *App) addCategoryForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "add_category.html", categoryFormData{})
}

func (a *App) addCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := forms.CategoryFormFromValues(r.PostForm)
	_, err := a.directory.CreateCategory(r.Context(), PrincipalFrom(r.Context()), form)

	var errs *forms.Errors
	switch {
	case errors.As(err, &errs):
		a.render(w, r, http.StatusUnprocessableEntity, "add_category.html", categoryFormData{Form: form, Errors: errs})
	case err != nil:
		a.serverError(w, r, err)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

type pageFormData struct {
	Category *models.Category
	Form     forms.PageForm
	Errors   *forms.Errors
}

func (a *App) addPageForm(w http.ResponseWriter, r *http.Request) {
	category, err := a.directory.Category(r.Context(), r.PathValue("slug"))
	if errors.Is(err, shared.ErrCategoryNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "add_page.html", pageFormData{Category: category})
}

func (a *App) addPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	slug := r.PathValue("slug")
	form := forms.PageFormFromValues(r.PostForm)
	_, err := a.directory.CreatePage(r.Context(), PrincipalFrom(r.Context()), slug, form)

	var errs *forms.Errors
	switch {
	case errors.Is(err, shared.ErrCategoryNotFound):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.As(err, &errs):
		category, cerr := a.directory.Category(r.Context(), slug)
		if cerr != nil {
			a.serverError(w, r, cerr)
			return
		}
		a.render(w, r, http.StatusUnprocessableEntity, "add_page.html", pageFormData{Category: category, Form: form, Errors: errs})
	case err != nil:
		a.serverError(w, r, err)
	default:
		http.Redirect(w, r, "/category/"+url.PathEscape(slug)+"/", http.StatusSeeOther)
	}
}

type registerFormData struct {
	User       forms.UserForm
	Profile    forms.ProfileForm
	Errors     *forms.Errors
	Registered bool
}

func (a *App) registerForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "register.html", registerFormData{})
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	userForm := forms.UserFormFromValues(r.PostForm)
	profileForm := forms.ProfileFormFromValues(r.PostForm)
	_, err := a.auth.Register(r.Context(), userForm, profileForm)

	var errs *forms.Errors
	switch {
	case errors.As(err, &errs):
		userForm.Password = ""
		a.render(w, r, http.StatusUnprocessableEntity, "register.html",
			registerFormData{User: userForm, Profile: profileForm, Errors: errs})
	case err != nil:
		a.serverError(w, r, err)
	default:
		a.render(w, r, http.StatusOK, "register.html", registerFormData{Registered: true})
	}
}

type loginFormData struct {
	Username string
	Next     string
	Message  string
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login.html", loginFormData{Next: safeNext(r.URL.Query().Get("next"))})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	next := safeNext(r.PostForm.Get("next"))
	data := loginFormData{Username: username, Next: next}

	p, err := a.auth.Login(r.Context(), username, r.PostForm.Get("password"))
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		a.logger.Warn("invalid login", "username", username)
		data.Message = "Invalid login details supplied."
		a.render(w, r, http.StatusUnauthorized, "login.html", data)
		return
	case errors.Is(err, shared.ErrAccountDisabled):
		data.Message = "Your Rango account is disabled."
		a.render(w, r, http.StatusForbidden, "login.html", data)
		return
	case err != nil:
		a.serverError(w, r, err)
		return
	}

	session := a.sessionFor(r)
	session.Values[userIDKey] = p.UserID
	a.saveSession(w, r, session)

	a.logger.Info("logged in", "username", p.Username)
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// safeNext keeps only local absolute paths, so the login form cannot redirect off-site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	session := a.sessionFor(r)
	session.Values = make(map[any]any)
	session.Options.MaxAge = -1
	a.saveSession(w, r, session)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) restricted(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "restricted.html", nil)
}

func (a *App) likeCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PostFormValue("category_id")
	if id == "" {
		http.Error(w, "category_id is required", http.StatusBadRequest)
		return
	}

	likes, err := a.directory.LikeCategory(r.Context(), PrincipalFrom(r.Context()), id)
	if errors.Is(err, shared.ErrCategoryNotFound) {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(strconv.Itoa(likes)))
}

func (a *App) gotoPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("page_id")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page, err := a.directory.VisitPage(r.Context(), id)
	if errors.Is(err, shared.ErrPageNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, page.URL(), http.StatusFound)
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	results, err := a.directory.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "search.html", results)
}

func (a *App) suggest(w http.ResponseWriter, r *http.Request) {
	categories, err := a.directory.SuggestCategories(r.Context(), r.URL.Query().Get("suggestion"))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "suggest.html", categories)
}
