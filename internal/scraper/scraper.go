package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/igor-ruivo/metin2-events/internal/logger"
)

const (
	UserAgent = "metin2-events-bot/1.0"
	Timeout   = 30 * time.Second
)

var (
	// ErrFetch wraps every transport failure: network errors and non-200 responses
	ErrFetch = errors.New("fetch failed")

	// ErrScheduleNotFound means there is nothing to show: no matching thread, or a
	// thread whose month, year or day table could not be resolved
	ErrScheduleNotFound = errors.New("schedule not found")
)

// DefaultServerFilter identifies the server family in titles and message bodies
var DefaultServerFilter = regexp.MustCompile(`(?i)tigerghost`)

// Scraper handles fetching and parsing the two event forums
type Scraper struct {
	client       *http.Client
	primary      Forum
	secondary    Forum
	serverFilter *regexp.Regexp
	limiter      *rate.Limiter
	now          func() time.Time
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithLocation makes "now" resolve in loc, the zone schedules are shown in
func WithLocation(loc *time.Location) Option {
	return func(s *Scraper) {
		s.now = func() time.Time { return time.Now().In(loc) }
	}
}

// WithClock overrides the clock used to pick the target month
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithRateLimit bounds requests per second against the forums. rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(s *Scraper) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithServerFilter sets the pattern used to find the server's paragraph block
// in the secondary forum
func WithServerFilter(re *regexp.Regexp) Option {
	return func(s *Scraper) {
		if re != nil {
			s.serverFilter = re
		}
	}
}

// New creates a Scraper for the given primary and secondary forums
func New(primary, secondary Forum, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		primary:      primary,
		secondary:    secondary,
		serverFilter: DefaultServerFilter,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scraper's current time
func (s *Scraper) Now() time.Time {
	return s.now()
}

// fetchDocument GETs url and parses the body as HTML
func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
		}
	}

	stop := logger.StartTimer("scraper.fetch")
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	logger.Debug("fetching page", logger.Fields{"url": url})

	resp, err := s.client.Do(req)
	if err != nil {
		logger.IncrCounter("scraper.fetch.error")
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.IncrCounter("scraper.fetch.error")
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", ErrFetch, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", url, err)
	}

	logger.IncrCounter("scraper.fetch.ok")
	return doc, nil
}
