package web

import (
	"context"
	"database/sql"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/directory"
	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/repositories"
	"github.com/desertthunder/rango/internal/server"
	tu "github.com/desertthunder/rango/internal/testing"
	"github.com/desertthunder/rango/internal/visits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testSite struct {
	t      *testing.T
	app    *App
	db     *sql.DB
	dir    *directory.Service
	auth   *auth.Service
	srv    *httptest.Server
	client *http.Client
	clock  atomic.Int64 // offset added to time.Now, in nanoseconds
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	db := tu.SetupTestDB(t)
	cfg := tu.TestConfig()
	logger := tu.NewTestLogger()

	site := &testSite{t: t, db: db}
	site.dir = directory.NewService(repositories.NewCategoryRepository(db), repositories.NewPageRepository(db), cfg.Site.TopN, logger)
	site.auth = auth.NewService(repositories.NewUserRepository(db), bcrypt.MinCost, logger)

	app, err := New(Options{
		Site:      cfg.Site,
		Session:   cfg.Session,
		Directory: site.dir,
		Auth:      site.auth,
		Throttle:  server.NewThrottle(1000, 1000),
		Logger:    logger,
	})
	require.NoError(t, err)
	app.now = func() time.Time { return time.Now().Add(time.Duration(site.clock.Load())) }
	site.app = app

	router := server.NewBasicRouter()
	app.Mount(router)
	site.srv = httptest.NewServer(router)
	t.Cleanup(site.srv.Close)

	site.client = site.newClient()
	return site
}

func (s *testSite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(s.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testSite) do(req *http.Request) (*http.Response, string) {
	s.t.Helper()
	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, string(body)
}

func (s *testSite) get(path string) (*http.Response, string) {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(s.t, err)
	return s.do(req)
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// csrfToken loads a page with the client's cookies and returns the token it embeds.
func (s *testSite) csrfToken() string {
	s.t.Helper()
	_, body := s.get("/search/")
	m := csrfMeta.FindStringSubmatch(body)
	require.Len(s.t, m, 2, "page has no csrf token")
	return html.UnescapeString(m[1])
}

// post submits values with a valid csrf token, as the site's own forms do.
func (s *testSite) post(path string, values url.Values) (*http.Response, string) {
	s.t.Helper()
	withToken := url.Values{csrfField: {s.csrfToken()}}
	for k, v := range values {
		withToken[k] = v
	}
	return s.postRaw(path, withToken, nil)
}

func (s *testSite) postRaw(path string, values url.Values, header http.Header) (*http.Response, string) {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(values.Encode()))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return s.do(req)
}

func (s *testSite) register(username, password string) {
	s.t.Helper()
	_, err := s.auth.Register(context.Background(), forms.UserForm{Username: username, Password: password}, forms.ProfileForm{})
	require.NoError(s.t, err)
}

func (s *testSite) login(username, password string) {
	s.t.Helper()
	s.register(username, password)
	resp, _ := s.post("/login/", url.Values{"username": {username}, "password": {password}})
	require.Equal(s.t, http.StatusSeeOther, resp.StatusCode)
}

func (s *testSite) category(name string, likes int) {
	s.t.Helper()
	p := &auth.Principal{UserID: "seed", Username: "seed"}
	c, err := s.dir.CreateCategory(context.Background(), p, forms.CategoryForm{Name: name})
	require.NoError(s.t, err)
	for range likes {
		_, err := s.dir.LikeCategory(context.Background(), p, c.ID())
		require.NoError(s.t, err)
	}
}

func (s *testSite) pageCount() int {
	s.t.Helper()
	var n int
	require.NoError(s.t, s.db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&n))
	return n
}

func TestIndex(t *testing.T) {
	site := newTestSite(t)
	site.category("Django", 5)
	site.category("Python", 10)

	resp, body := site.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	python, django := strings.Index(body, "Python"), strings.Index(body, "Django")
	require.NotEqual(t, -1, python)
	require.NotEqual(t, -1, django)
	assert.Less(t, python, django, "most liked category should be listed first")
	assert.Contains(t, body, "There are no pages present.")
}

func TestVisitCounter(t *testing.T) {
	site := newTestSite(t)

	_, body := site.get("/about/")
	assert.Contains(t, body, `<strong id="visits">1</strong> time.`)

	_, body = site.get("/about/")
	assert.Contains(t, body, `<strong id="visits">1</strong>`, "same day should not count again")

	_, body = site.get("/")
	assert.Contains(t, body, "Visits: 1")

	site.clock.Store(int64(25 * time.Hour))
	_, body = site.get("/about/")
	assert.Contains(t, body, `<strong id="visits">2</strong> times.`)

	t.Run("visitors are counted separately", func(t *testing.T) {
		site.client = site.newClient()
		_, body := site.get("/about/")
		assert.Contains(t, body, `<strong id="visits">1</strong>`)
	})
}

func TestTrackVisitsMalformedSession(t *testing.T) {
	site := newTestSite(t)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	site.app.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/about/", nil)
	session, err := site.app.store.Get(req, site.app.session)
	require.NoError(t, err)
	session.Values[visits.VisitsKey] = 4
	session.Values[visits.LastVisitKey] = "Fri Mar  1 11:00:00"

	var got visits.State
	handler := site.app.TrackVisits(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = VisitsFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 4, got.Visits)
	assert.True(t, got.LastVisit.Equal(now), "malformed last_visit should reset to now")
	assert.Equal(t, visits.FormatLastVisit(now), session.Values[visits.LastVisitKey])
	assert.NotEmpty(t, rec.Result().Cookies(), "session should be saved")
}

func TestShowCategory(t *testing.T) {
	site := newTestSite(t)
	site.category("Python", 0)

	resp, body := site.get("/category/nonexistent/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "The specified category does not exist!")

	resp, body = site.get("/category/python/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Python</h1>")
	assert.Contains(t, body, "No pages currently in category.")
	assert.NotContains(t, body, "Add a Page", "anonymous visitors cannot add pages")
}

func TestGatedRoutes(t *testing.T) {
	site := newTestSite(t)
	site.category("Python", 0)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/add_category/"},
		{http.MethodPost, "/add_category/"},
		{http.MethodGet, "/category/python/add_page/"},
		{http.MethodPost, "/category/python/add_page/"},
		{http.MethodGet, "/restricted/"},
		{http.MethodGet, "/logout/"},
		{http.MethodPost, "/like/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var resp *http.Response
			if tt.method == http.MethodPost {
				resp, _ = site.post(tt.path, url.Values{"name": {"Sneaky"}, "title": {"x"}, "url": {"http://x.com"}})
			} else {
				resp, _ = site.get(tt.path)
			}

			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, "/login/?next="+url.QueryEscape(tt.path), resp.Header.Get("Location"))
		})
	}

	assert.Equal(t, 0, site.pageCount())
	view, err := site.dir.ShowCategory(context.Background(), "sneaky")
	require.NoError(t, err)
	assert.False(t, view.Found())
}

func TestAddCategory(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")

	resp, body := site.get("/add_category/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="name"`)

	resp, _ = site.post("/add_category/", url.Values{"name": {"Python"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body = site.post("/add_category/", url.Values{"name": {"python"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Category with this name already exists.")
	assert.Contains(t, body, `value="python"`, "submitted value should be preserved")

	resp, body = site.post("/add_category/", url.Values{"name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")
}

func TestCSRF(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")
	site.category("Python", 0)

	_, body := site.get("/add_category/")
	assert.Contains(t, body, `name="`+csrfField+`"`)

	t.Run("form without token", func(t *testing.T) {
		resp, _ := site.postRaw("/add_category/", url.Values{"name": {"Forged"}}, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		view, err := site.dir.ShowCategory(context.Background(), "forged")
		require.NoError(t, err)
		assert.False(t, view.Found())
	})

	t.Run("like with a bogus token", func(t *testing.T) {
		view, err := site.dir.ShowCategory(context.Background(), "python")
		require.NoError(t, err)

		resp, _ := site.postRaw("/like/", url.Values{"category_id": {view.Category.ID()}}, http.Header{csrfHeader: {"bogus"}})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		view, err = site.dir.ShowCategory(context.Background(), "python")
		require.NoError(t, err)
		assert.Equal(t, 0, view.Category.Likes())
	})

	t.Run("token from another visitor", func(t *testing.T) {
		token := site.csrfToken()
		site.client = site.newClient()

		resp, _ := site.postRaw("/login/", url.Values{csrfField: {token}, "username": {"leifos"}, "password": {"rango"}}, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestAddPage(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")

	t.Run("unknown category redirects home", func(t *testing.T) {
		resp, _ := site.get("/category/nonexistent/add_page/")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		resp, _ = site.post("/category/nonexistent/add_page/", url.Values{"title": {"Docs"}, "url": {"http://example.com"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		assert.Equal(t, 0, site.pageCount())
	})

	site.category("Python", 0)

	t.Run("submitted views are ignored", func(t *testing.T) {
		resp, _ := site.post("/category/python/add_page/", url.Values{
			"title": {"Official Python Tutorial"},
			"url":   {"docs.python.org/3/tutorial/"},
			"views": {"100"},
		})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/category/python/", resp.Header.Get("Location"))

		view, err := site.dir.ShowCategory(context.Background(), "python")
		require.NoError(t, err)
		require.Len(t, view.Pages, 1)
		assert.Equal(t, 0, view.Pages[0].Views())
		assert.Equal(t, "http://docs.python.org/3/tutorial/", view.Pages[0].URL())
	})

	t.Run("invalid form is re-rendered with the category", func(t *testing.T) {
		resp, body := site.post("/category/python/add_page/", url.Values{"title": {""}, "url": {""}})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, `action="/category/python/add_page/"`)
		assert.Contains(t, body, "This field is required.")
		assert.Equal(t, 1, site.pageCount())
	})
}

func TestRegister(t *testing.T) {
	site := newTestSite(t)
	values := url.Values{"username": {"leifos"}, "password": {"rango"}, "website": {"tangowithdjango.com"}}

	resp, body := site.post("/register/", values)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Thank you for registering!")

	resp, body = site.post("/register/", values)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "A user with that username already exists.")
	assert.NotContains(t, body, `value="rango"`, "password must not be echoed")
}

func TestLogin(t *testing.T) {
	site := newTestSite(t)
	site.register("leifos", "rango")
	site.register("laura", "rango")
	require.NoError(t, site.auth.Deactivate(context.Background(), "laura"))

	t.Run("invalid details", func(t *testing.T) {
		resp, body := site.post("/login/", url.Values{"username": {"leifos"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, "Invalid login details supplied.")
	})

	t.Run("disabled account", func(t *testing.T) {
		resp, body := site.post("/login/", url.Values{"username": {"laura"}, "password": {"rango"}})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body, "Your Rango account is disabled.")
	})

	t.Run("unsafe next is ignored", func(t *testing.T) {
		site.client = site.newClient()
		resp, _ := site.post("/login/", url.Values{"username": {"leifos"}, "password": {"rango"}, "next": {"//evil.example.com/"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("next is honoured", func(t *testing.T) {
		site.client = site.newClient()
		_, body := site.get("/login/?next=%2Frestricted%2F")
		assert.Contains(t, body, `name="next" value="/restricted/"`)

		resp, _ := site.post("/login/", url.Values{"username": {"leifos"}, "password": {"rango"}, "next": {"/restricted/"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/restricted/", resp.Header.Get("Location"))

		resp, body = site.get("/restricted/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Since you're logged in, you can see this text!")
	})
}

func TestLogout(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")

	resp, _ := site.get("/restricted/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = site.get("/logout/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = site.get("/restricted/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDeactivatedSessionIsLoggedOut(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")
	require.NoError(t, site.auth.Deactivate(context.Background(), "leifos"))

	resp, _ := site.get("/restricted/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login/"))
}

func TestLikeAndGoto(t *testing.T) {
	site := newTestSite(t)
	site.login("leifos", "rango")
	site.category("Python", 0)

	view, err := site.dir.ShowCategory(context.Background(), "python")
	require.NoError(t, err)
	id := view.Category.ID()

	like := url.Values{"category_id": {id}}
	resp, body := site.post("/like/", like)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", body)

	header := http.Header{csrfHeader: {site.csrfToken()}}
	_, body = site.postRaw("/like/", like, header)
	assert.Equal(t, "2", body, "token in the htmx header")

	resp, _ = site.get("/like/?category_id=" + id)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = site.post("/like/", url.Values{"category_id": {"missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	page, err := site.dir.CreatePage(context.Background(), &auth.Principal{Username: "seed"}, "python",
		forms.PageForm{Title: "Docs", URL: "https://docs.python.org/3/"})
	require.NoError(t, err)

	resp, _ = site.get("/goto/?page_id=" + page.ID())
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://docs.python.org/3/", resp.Header.Get("Location"))

	listing, err := site.dir.Index(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Pages, 1)
	assert.Equal(t, 1, listing.Pages[0].Views())

	resp, _ = site.get("/goto/?page_id=missing")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSearchAndSuggest(t *testing.T) {
	site := newTestSite(t)
	site.category("Python", 0)
	site.category("Django", 0)

	resp, body := site.get("/search/?query=pyth")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/category/python/"`)
	assert.NotContains(t, body, `href="/category/django/"`)

	_, body = site.get("/search/?query=zzz")
	assert.Contains(t, body, "No results for")

	resp, body = site.get("/suggest/?suggestion=Dj")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/category/django/"`)
	assert.NotContains(t, body, "Python")
	assert.NotContains(t, body, "<html", "suggestions are a fragment")
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"/restricted/":         "/restricted/",
		"//evil.example.com":   "",
		"https://evil.example": "",
		`/\evil.example.com`:   "",
		"relative/path":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), "safeNext(%q)", in)
	}
}
