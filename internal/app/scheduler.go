package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/content-agent/pkg/logger"
)

// StartScheduler starts a cron that runs the automation dispatcher on the
// configured tick. Overlapping ticks are skipped. Stop the returned cron
// on shutdown.
func (a *App) StartScheduler() (*cron.Cron, error) {
	cl := cronLogger{a.Log.WithComponent("cron")}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	_, err := c.AddFunc(a.Config.Scheduler.TickCron, func() {
		a.Log.Info().Msg("Running scheduled automation tick")
		_, _ = a.RunAutomation(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule automation tick: %w", err)
	}

	c.Start()
	a.Log.Info().Str("cron", a.Config.Scheduler.TickCron).Msg("Automation scheduler started")
	return c, nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
