package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/igor-ruivo/metin2-events/internal/config"
	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/logger"
	"github.com/igor-ruivo/metin2-events/internal/notifier"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
	"github.com/igor-ruivo/metin2-events/internal/scraper"
	"github.com/igor-ruivo/metin2-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// scheduleSource resolves the schedule for a period
type scheduleSource interface {
	GetSchedule(ctx context.Context, p schedule.Period) (*schedule.MonthlySchedule, error)
	Now() time.Time
}

// app holds what the commands share. setup fills it from the configuration
// unless a source was injected beforehand.
type app struct {
	configPath string
	verbose    bool
	dryRun     bool

	cfg    *config.Config
	loc    *time.Location
	source scheduleSource
	store  storage.Store
	sender notifier.Notifier
	out    io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{out: os.Stdout})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metin2-events",
		Short: "Metin2 Tigerghost event schedules for Discord",
		Long: `A CLI tool that scrapes the monthly Metin2 event threads, merges the
additional events announced on the English forum and delivers the schedule
to Discord.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "Print webhook messages instead of sending them")

	cmd.AddCommand(
		newShowCmd(a),
		newRefreshCmd(a),
		newCachedCmd(a),
		newRemindCmd(a),
		newMonthlyCmd(a),
		newICSCmd(a),
		newServeCmd(a),
	)

	return cmd
}

func (a *app) setup() error {
	if a.source != nil {
		return nil
	}

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("could not load .env file", logger.Fields{"error": err.Error()})
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	a.loc, err = cfg.Location()
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	primary, err := forumFrom(scraper.PrimaryForum(), cfg.Forums.Primary)
	if err != nil {
		return err
	}
	secondary, err := forumFrom(scraper.SecondaryForum(), cfg.Forums.Secondary)
	if err != nil {
		return err
	}

	a.source = scraper.New(primary, secondary,
		scraper.WithLocation(a.loc),
		scraper.WithRateLimit(cfg.RateLimit()),
		scraper.WithServerFilter(regexp.MustCompile(cfg.ServerFilter)),
	)

	a.store, err = storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	switch {
	case a.dryRun:
		a.sender = notifier.NewDryRunNotifier(a.out)
	case cfg.Discord.WebhookURL != "":
		client, err := discord.NewClient(cfg.Discord.WebhookURL)
		if err != nil {
			return err
		}
		a.sender = client
	}

	logger.Debug("configuration loaded", logger.Fields{
		"config":   a.configPath,
		"timezone": cfg.Timezone,
		"backend":  cfg.Storage.Backend,
		"webhook":  a.sender != nil,
		"dry_run":  a.dryRun,
	})
	return nil
}

// forumFrom overlays configured values on a default forum
func forumFrom(f scraper.Forum, fc config.ForumConfig) (scraper.Forum, error) {
	if fc.URL != "" {
		f.IndexURL = fc.URL
	}
	if fc.Selector != "" {
		f.ThreadSelector = fc.Selector
	}
	if fc.TitleFilter != "" {
		re, err := regexp.Compile(fc.TitleFilter)
		if err != nil {
			return f, fmt.Errorf("invalid %s title filter: %w", f.Name, err)
		}
		f.TitleFilter = re
	}
	return f, nil
}

// mention returns the configured role mention, if any
func (a *app) mention() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.Discord.Mention
}

func (a *app) location() *time.Location {
	if a.loc == nil {
		return time.UTC
	}
	return a.loc
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
