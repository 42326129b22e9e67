package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rango/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 5
	MaxWorkers       = 10
	DefaultRateLimit = 5.0 // requests per second
	DefaultTimeout   = 10 * time.Second
	userAgent        = "rango-linkcheck/0.1"
)

// LinkCheckOpts contains configuration for a link check run.
type LinkCheckOpts struct {
	NumWorkers int           // Concurrent workers (default: 5, max: 10)
	RateLimit  float64       // Requests per second across all workers (default: 5)
	Timeout    time.Duration // Per-request timeout (default: 10s)
}

func (o LinkCheckOpts) withDefaults() LinkCheckOpts {
	if o.NumWorkers <= 0 {
		o.NumWorkers = DefaultWorkers
	}
	if o.NumWorkers > MaxWorkers {
		o.NumWorkers = MaxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// LinkStatus is the outcome of checking one page's URL.
type LinkStatus struct {
	PageID     string        `json:"page_id"`
	Title      string        `json:"title"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the URL answered with a 2xx or 3xx status.
func (s LinkStatus) OK() bool {
	return s.Err == nil && s.StatusCode >= 200 && s.StatusCode < 400
}

// LinkCheckResult summarizes a link check run. Statuses follow the order of the checked pages.
type LinkCheckResult struct {
	Total    int          `json:"total"`
	Healthy  int          `json:"healthy"`
	Broken   int          `json:"broken"`
	Statuses []LinkStatus `json:"statuses"`
}

// BrokenLinks returns the statuses that are not OK.
func (r *LinkCheckResult) BrokenLinks() []LinkStatus {
	broken := make([]LinkStatus, 0, r.Broken)
	for _, s := range r.Statuses {
		if !s.OK() {
			broken = append(broken, s)
		}
	}
	return broken
}

// LinkChecker checks page URLs over HTTP.
type LinkChecker struct {
	client *http.Client
	logger *log.Logger
}

type linkJob struct {
	index int
	page  *models.Page
}

type linkResult struct {
	index  int
	status LinkStatus
}

// NewLinkChecker creates a [LinkChecker]. A nil client uses [http.DefaultClient].
func NewLinkChecker(client *http.Client, logger *log.Logger) *LinkChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LinkChecker{client: client, logger: logger}
}

// Check requests the URL of every page concurrently with rate limiting and progress tracking.
//
// Individual failures are recorded in the result; the returned error is only set when ctx ends before every
// page was checked, in which case the partial result is returned alongside it.
func (c *LinkChecker) Check(ctx context.Context, pages []*models.Page, progress chan<- ProgressUpdate, opts LinkCheckOpts) (*LinkCheckResult, error) {
	opts = opts.withDefaults()

	result := &LinkCheckResult{
		Total:    len(pages),
		Statuses: make([]LinkStatus, len(pages)),
	}
	if len(pages) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan linkJob, len(pages))
	results := make(chan linkResult, len(pages))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, limiter, jobs, results, opts.Timeout)
	}

	sendProgress(progress, queueLinksUpdate(len(pages)))
	for i, page := range pages {
		jobs <- linkJob{index: i, page: page}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	checked := 0
	for res := range results {
		checked++
		result.Statuses[res.index] = res.status
		if res.status.OK() {
			result.Healthy++
		} else {
			result.Broken++
		}
		sendProgress(progress, linkCheckedUpdate(checked, len(pages), res.status))
	}

	if checked < len(pages) {
		return result, fmt.Errorf("link check interrupted after %d of %d pages: %w", checked, len(pages), ctx.Err())
	}

	c.logger.Info("link check complete", "total", result.Total, "healthy", result.Healthy, "broken", result.Broken)
	return result, nil
}

// worker checks pages from the jobs channel until it is drained or ctx ends.
func (c *LinkChecker) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan linkJob,
	results chan<- linkResult,
	timeout time.Duration,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		results <- linkResult{index: job.index, status: c.checkOne(ctx, job.page, timeout)}
	}
}

func (c *LinkChecker) checkOne(ctx context.Context, page *models.Page, timeout time.Duration) LinkStatus {
	status := LinkStatus{PageID: page.ID(), Title: page.Title(), URL: page.URL()}
	start := time.Now()

	code, err := c.request(ctx, http.MethodHead, page.URL(), timeout)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		code, err = c.request(ctx, http.MethodGet, page.URL(), timeout)
	}

	status.Elapsed = time.Since(start)
	status.StatusCode = code
	if err != nil {
		status.Err = err
		status.Error = err.Error()
		c.logger.Debug("link unreachable", "url", page.URL(), "error", err)
	}
	return status
}

func (c *LinkChecker) request(ctx context.Context, method, url string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// drain a little so keep-alive connections can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
