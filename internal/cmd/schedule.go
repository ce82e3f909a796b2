package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
)

type ScheduleCmd struct {
	Spec      string   `help:"Cron spec such as '@every 4h' or '0 */6 * * *'. Defaults to the configured schedule."`
	Targets   string   `help:"Target registry file. Defaults to targets.yaml in the config dir."`
	Only      []string `help:"Only run these target tokens (comma-separated)."`
	Query     string   `help:"Extra query terms that raise relevance scores."`
	Proxies   string   `help:"Comma-separated proxy URLs."`
	NoInitial bool     `name:"no-initial" help:"Wait for the first tick instead of running at startup."`
}

func (s *ScheduleCmd) Run(ctx *Context) error {
	spec := strings.TrimSpace(s.Spec)
	if spec == "" {
		spec = ctx.Config.Schedule
	}
	if spec == "" {
		return fmt.Errorf("no schedule configured")
	}

	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := ctx.Logger.With().Str("component", "scheduler").Logger()
	cronLogger := cron.PrintfLogger(&logger)
	opts := runOptions{targetsFile: s.Targets, only: s.Only, query: s.Query, proxies: s.Proxies}

	job := cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)).Then(cron.FuncJob(func() {
		report, err := runOnce(c, ctx, opts)
		if err != nil {
			logger.Error().Err(err).Str("run_id", report.RunID).Msg("scheduled run failed")
			return
		}
		logger.Info().Msg(formatRunSummary(report))
	}))

	scheduler := cron.New(cron.WithLogger(cronLogger))
	if _, err := scheduler.AddJob(spec, job); err != nil {
		return fmt.Errorf("cron.AddJob(%q): %w", spec, err)
	}
	scheduler.Start()
	logger.Info().Str("spec", spec).Msg("scheduler started")

	if !s.NoInitial {
		go job.Run()
	}

	<-c.Done()
	logger.Info().Msg("stopping scheduler")
	<-scheduler.Stop().Done()
	return nil
}
