package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/igor-ruivo/metin2-events/internal/config"
	"github.com/igor-ruivo/metin2-events/internal/logger"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run refresh, remind and monthly on their cron schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					logger.Info("signal received, shutting down", logger.Fields{"signal": sig.String()})
					cancel()
				case <-ctx.Done():
				}
			}()

			return a.serve(ctx)
		},
	}
}

type job struct {
	name         string
	spec         string
	run          func(ctx context.Context) error
	needsWebhook bool
}

func (a *app) jobs() []job {
	specs := config.DefaultConfig().Cron
	if a.cfg != nil {
		specs = a.cfg.Cron
	}

	return []job{
		{name: "refresh", spec: specs.Refresh, run: a.refreshJob},
		{name: "remind", spec: specs.Remind, needsWebhook: true, run: func(ctx context.Context) error {
			_, err := a.remind(ctx)
			return err
		}},
		{name: "monthly", spec: specs.Monthly, needsWebhook: true, run: a.monthly},
	}
}

func (a *app) refreshJob(ctx context.Context) error {
	_, err := a.refresh(ctx)
	return err
}

// serve refreshes once, then runs the jobs until ctx is cancelled
func (a *app) serve(ctx context.Context) error {
	c, err := a.scheduler(ctx)
	if err != nil {
		return err
	}

	a.runJob(ctx, "refresh", a.refreshJob)

	c.Start()
	logger.Info("scheduler started", logger.Fields{
		"jobs":     len(c.Entries()),
		"timezone": a.location().String(),
	})

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("scheduler stopped", nil)
	return nil
}

// scheduler registers every runnable job; webhook jobs are skipped without a webhook
func (a *app) scheduler(ctx context.Context) (*cron.Cron, error) {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLocation(a.location()),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	for _, j := range a.jobs() {
		if j.needsWebhook && a.sender == nil {
			logger.Warn("no webhook configured, job disabled", logger.Fields{"job": j.name})
			continue
		}
		if _, err := c.AddFunc(j.spec, func() { a.runJob(ctx, j.name, j.run) }); err != nil {
			return nil, fmt.Errorf("scheduling %s %q: %w", j.name, j.spec, err)
		}
		logger.Debug("job scheduled", logger.Fields{"job": j.name, "spec": j.spec})
	}
	return c, nil
}

func (a *app) runJob(ctx context.Context, name string, run func(context.Context) error) {
	stop := logger.StartTimer("job." + name)
	defer stop()

	if err := run(ctx); err != nil {
		logger.IncrCounter("job." + name + ".error")
		logger.Error("job failed", logger.Fields{"job": name}, err)
		return
	}
	logger.IncrCounter("job." + name + ".ok")
}

// cronLogger routes cron's own messages into the structured logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(kv []interface{}) logger.Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
