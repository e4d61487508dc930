package scraper

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/igor-ruivo/metin2-events/internal/logger"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

var serverLabelPattern = regexp.MustCompile(`\[(.*?)\]`)

// BuildSchedule fetches a primary thread (and the matching secondary thread when
// secondaryHref is set) and assembles the month's schedule. It returns an error
// wrapping ErrScheduleNotFound when the title or table cannot be resolved.
func (s *Scraper) BuildSchedule(ctx context.Context, title, primaryHref, secondaryHref string) (*schedule.MonthlySchedule, error) {
	stop := logger.StartTimer("scraper.build")
	defer stop()

	var primaryDoc, secondaryDoc *goquery.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.fetchDocument(gctx, primaryHref)
		if err != nil {
			return fmt.Errorf("fetching primary thread: %w", err)
		}
		primaryDoc = doc
		return nil
	})
	if secondaryHref != "" {
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, secondaryHref)
			if err != nil {
				return fmt.Errorf("fetching secondary thread: %w", err)
			}
			secondaryDoc = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	month, year := schedule.ExtractMonthYear(title)
	days := ParseMonthlyTable(primaryDoc)
	if month == nil || year == nil || len(days) == 0 {
		logger.Warn("could not resolve schedule from thread", logger.Fields{
			"title":     title,
			"url":       primaryHref,
			"month_ok":  month != nil,
			"year_ok":   year != nil,
			"day_count": len(days),
		})
		return nil, fmt.Errorf("%w: thread %q", ErrScheduleNotFound, title)
	}

	sched := &schedule.MonthlySchedule{
		ServerLabel: serverLabel(title),
		Month:       *month,
		Year:        *year,
		Days:        days,
		ThreadTitle: title,
		ThreadURL:   primaryHref,
	}

	if secondaryDoc != nil {
		extras := ParseAdditionalEvents(secondaryDoc, s.serverFilter)
		MergeAdditionalEvents(sched, extras)
		logger.Info("merged additional events", logger.Fields{
			"url":   secondaryHref,
			"count": len(extras),
		})
	}

	logger.SetGauge("schedule.days", float64(len(sched.Days)))
	return sched, nil
}

// GetSchedule resolves the schedule for a period: it searches both forums, picks the
// threads for the target month and builds the merged schedule. A missing secondary
// thread only skips the merge.
func (s *Scraper) GetSchedule(ctx context.Context, period schedule.Period) (*schedule.MonthlySchedule, error) {
	var primaryThreads, secondaryThreads []schedule.ThreadRef

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refs, err := s.FindThreads(gctx, s.primary)
		if err != nil {
			return fmt.Errorf("finding %s threads: %w", s.primary.Name, err)
		}
		primaryThreads = refs
		return nil
	})
	g.Go(func() error {
		refs, err := s.FindThreads(gctx, s.secondary)
		if err != nil {
			return fmt.Errorf("finding %s threads: %w", s.secondary.Name, err)
		}
		secondaryThreads = refs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	month, year := schedule.Target(s.now(), period)
	fields := logger.Fields{"period": string(period), "month": month + 1, "year": year}

	primary, ok := SelectThread(primaryThreads, month, year)
	if !ok {
		logger.Info("no primary thread for period", fields)
		return nil, fmt.Errorf("%w: no thread for %02d/%d", ErrScheduleNotFound, month+1, year)
	}

	secondaryHref := ""
	if secondary, ok := SelectThread(secondaryThreads, month, year); ok {
		secondaryHref = secondary.Href
	} else {
		logger.Warn("secondary thread not found, skipping additional events", fields)
	}

	return s.BuildSchedule(ctx, primary.Title, primary.Href, secondaryHref)
}

// SelectThread returns the first thread whose title resolves to month/year
func SelectThread(threads []schedule.ThreadRef, month, year int) (schedule.ThreadRef, bool) {
	for _, t := range threads {
		m, y := schedule.ExtractMonthYear(t.Title)
		if m != nil && y != nil && *m == month && *y == year {
			return t, true
		}
	}
	return schedule.ThreadRef{}, false
}

// serverLabel returns the text of the first [bracketed] tag in a title
func serverLabel(title string) string {
	if m := serverLabelPattern.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return schedule.DefaultServerLabel
}
