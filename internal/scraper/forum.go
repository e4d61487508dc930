package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/igor-ruivo/metin2-events/internal/logger"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	PrimaryForumURL   = "https://board.pt.metin2.gameforge.com/index.php?board/86-eventos-metin2-pt/"
	SecondaryForumURL = "https://board.en.metin2.gameforge.com/index.php?board/354-events/"

	// DefaultThreadSelector scopes anchors to the thread listing of a WoltLab board
	DefaultThreadSelector = "#content [data-thread-id] a[href]"
)

// Forum describes one forum index to search for monthly event threads
type Forum struct {
	Name           string
	IndexURL       string
	ThreadSelector string
	TitleFilter    *regexp.Regexp
}

// PrimaryForum returns the Portuguese forum, whose threads carry the day table
func PrimaryForum() Forum {
	return Forum{
		Name:           "primary",
		IndexURL:       PrimaryForumURL,
		ThreadSelector: DefaultThreadSelector,
		TitleFilter:    regexp.MustCompile(`(?i)tigerghost`),
	}
}

// SecondaryForum returns the English forum, whose threads carry additional events
func SecondaryForum() Forum {
	return Forum{
		Name:           "secondary",
		IndexURL:       SecondaryForumURL,
		ThreadSelector: DefaultThreadSelector,
		TitleFilter:    regexp.MustCompile(`(?i)events`),
	}
}

// FindThreads fetches the forum index and returns candidate event threads
func (s *Scraper) FindThreads(ctx context.Context, f Forum) ([]schedule.ThreadRef, error) {
	doc, err := s.fetchDocument(ctx, f.IndexURL)
	if err != nil {
		return nil, err
	}

	threads, err := parseThreads(doc, f)
	if err != nil {
		return nil, err
	}

	logger.Info("found threads", logger.Fields{
		"forum": f.Name,
		"count": len(threads),
	})
	return threads, nil
}

// unescapeHref decodes percent-encoded slugs such as "mar%C3%A7o-2026"
func unescapeHref(href string) string {
	if u, err := url.PathUnescape(href); err == nil {
		return u
	}
	return href
}

// parseThreads extracts thread title/URL pairs matching the forum's filters.
// An anchor qualifies when its text matches TitleFilter and its href mentions a month.
func parseThreads(doc *goquery.Document, f Forum) ([]schedule.ThreadRef, error) {
	base, err := url.Parse(f.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("parsing forum URL %q: %w", f.IndexURL, err)
	}

	selector := f.ThreadSelector
	if selector == "" {
		selector = DefaultThreadSelector
	}

	threads := make([]schedule.ThreadRef, 0)
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		title := strings.TrimSpace(a.Text())
		href, _ := a.Attr("href")

		if f.TitleFilter != nil && !f.TitleFilter.MatchString(title) {
			return
		}
		if !schedule.ContainsMonthName(unescapeHref(href)) {
			return
		}

		ref, err := base.Parse(href)
		if err != nil {
			logger.Debug("skipping thread with bad href", logger.Fields{"href": href, "forum": f.Name})
			return
		}

		threads = append(threads, schedule.ThreadRef{
			Title: title,
			Href:  ref.String(),
		})
	})

	return threads, nil
}
