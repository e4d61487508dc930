package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/igor-ruivo/metin2-events/internal/calendar"
	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/logger"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
	"github.com/igor-ruivo/metin2-events/internal/scraper"
	"github.com/igor-ruivo/metin2-events/internal/storage"
)

var errNoWebhook = errors.New("discord webhook URL is not configured (set discord.webhook_url or DISCORD_WEBHOOK_URL)")

const periodUsage = "Period: today, week, month or next"

func newShowCmd(a *app) *cobra.Command {
	var period, format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Scrape the forums and print a period's schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			return a.show(cmd.Context(), schedule.ParsePeriod(period), f)
		},
	}

	cmd.Flags().StringVar(&period, "period", string(schedule.Month), periodUsage)
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")
	return cmd
}

// show resolves a period live. An absent schedule is a normal outcome and
// prints the "nothing scheduled" reply.
func (a *app) show(ctx context.Context, p schedule.Period, f OutputFormat) error {
	sched, err := a.source.GetSchedule(ctx, p)
	now := a.source.Now()
	result := &OutputResult{Period: p, GeneratedAt: now}

	switch {
	case errors.Is(err, scraper.ErrScheduleNotFound):
		result.Message = discord.NothingScheduled(p)
	case err != nil:
		logger.Error("could not build schedule", logger.Fields{"period": string(p)}, err)
		return fmt.Errorf("could not load the %s schedule: %w", p, err)
	default:
		result.Available = true
		result.Schedule = sched
		result.Embeds = discord.Embeds(p, sched, now)
	}

	return WriteOutput(a.out, result, f)
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Precompute every period and save the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			available, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Refreshed %d periods (%d with a schedule).\n", len(schedule.Periods()), available)
			return nil
		},
	}
}

// refresh builds all periods concurrently and stores them. A period that cannot
// be built is stored as unavailable; only storage failures are returned.
func (a *app) refresh(ctx context.Context) (int, error) {
	periods := schedule.Periods()
	results := make([][]discord.Embed, len(periods))

	var wg sync.WaitGroup
	for i, p := range periods {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.build(ctx, p)
		}()
	}
	wg.Wait()

	available := 0
	for i, p := range periods {
		if err := a.store.Save(p, results[i]); err != nil {
			return available, fmt.Errorf("saving %s: %w", p, err)
		}
		if !discord.IsUnavailable(results[i]) {
			available++
		}
	}

	logger.Info("periods refreshed", logger.Fields{
		"periods":   len(periods),
		"available": available,
	})
	return available, nil
}

func (a *app) build(ctx context.Context, p schedule.Period) []discord.Embed {
	fields := logger.Fields{"period": string(p)}

	sched, err := a.source.GetSchedule(ctx, p)
	switch {
	case errors.Is(err, scraper.ErrScheduleNotFound):
		logger.Warn("no schedule for period", fields)
		return discord.UnavailableEmbeds()
	case err != nil:
		logger.Error("failed to build period", fields, err)
		return discord.UnavailableEmbeds()
	}

	logger.Info("period built", logger.Fields{"period": string(p), "days": len(sched.Days)})
	return discord.Embeds(p, sched, a.source.Now())
}

func newCachedCmd(a *app) *cobra.Command {
	var period, format string

	cmd := &cobra.Command{
		Use:   "cached",
		Short: "Print a period's stored result, building it live when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			return a.cached(cmd.Context(), schedule.ParsePeriod(period), f)
		},
	}

	cmd.Flags().StringVar(&period, "period", string(schedule.Week), periodUsage)
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")
	return cmd
}

func (a *app) cached(ctx context.Context, p schedule.Period, f OutputFormat) error {
	embeds, err := a.store.Load(p)
	result := &OutputResult{Period: p, GeneratedAt: a.source.Now()}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("period not precomputed, building it live", logger.Fields{"period": string(p)})
		return a.show(ctx, p, f)
	case err != nil:
		return fmt.Errorf("loading %s: %w", p, err)
	case discord.IsUnavailable(embeds):
		result.Message = discord.NothingScheduled(p)
	default:
		result.Available = true
		result.Embeds = embeds
	}

	return WriteOutput(a.out, result, f)
}

func newRemindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send the countdown for the slot starting in the next hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, err := a.remind(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Sent %d reminder(s).\n", sent)
			return nil
		},
	}
}

func (a *app) remind(ctx context.Context) (int, error) {
	if a.sender == nil {
		return 0, errNoWebhook
	}

	sched, err := a.source.GetSchedule(ctx, schedule.Today)
	if errors.Is(err, scraper.ErrScheduleNotFound) {
		logger.Info("no schedule for today, skipping reminder", nil)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetching today's schedule: %w", err)
	}

	now := a.source.Now()
	embeds := discord.Reminders(sched, now)
	if len(embeds) == 0 {
		logger.Info("no reminder due", logger.Fields{"hour": now.Hour(), "day": now.Day()})
		return 0, nil
	}

	if err := a.sender.Send(ctx, discord.Payload{Content: a.mention(), Embeds: embeds}); err != nil {
		return 0, fmt.Errorf("sending reminder: %w", err)
	}
	return len(embeds), nil
}

func newMonthlyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly",
		Short: "Send this month's schedule to the webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.monthly(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Monthly schedule sent.")
			return nil
		},
	}
}

func (a *app) monthly(ctx context.Context) error {
	if a.sender == nil {
		return errNoWebhook
	}

	sched, err := a.source.GetSchedule(ctx, schedule.Month)
	if err != nil {
		return fmt.Errorf("no schedule for this month: %w", err)
	}

	payload := discord.Payload{
		Content: a.mention(),
		Embeds:  discord.Embeds(schedule.Month, sched, a.source.Now()),
	}
	if err := a.sender.Send(ctx, payload); err != nil {
		return fmt.Errorf("sending monthly schedule: %w", err)
	}
	return nil
}

func newICSCmd(a *app) *cobra.Command {
	var period, output string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export a month's schedule as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ics(cmd.Context(), schedule.ParsePeriod(period), output)
		},
	}

	cmd.Flags().StringVar(&period, "period", string(schedule.Month), "Month to export: month or next")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) ics(ctx context.Context, p schedule.Period, output string) error {
	sched, err := a.source.GetSchedule(ctx, p)
	if errors.Is(err, scraper.ErrScheduleNotFound) {
		fmt.Fprintln(a.out, discord.NothingScheduled(p))
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not load the %s schedule: %w", p, err)
	}

	data := calendar.GenerateICS(sched, a.location())
	if output == "" {
		_, err := fmt.Fprint(a.out, data)
		return err
	}

	if err := os.WriteFile(output, []byte(data), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	logger.Info("calendar written", logger.Fields{"path": output, "days": len(sched.Days)})
	fmt.Fprintf(a.out, "Wrote %s\n", output)
	return nil
}
