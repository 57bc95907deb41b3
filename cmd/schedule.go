package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/functions"
	"tasnim.dev/aria-idc/internal/logger"
)

func NewScheduleCmd(opts *Options) *cobra.Command {
	var spec string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the inventory pipeline on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := opts.Env(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			defer logger.Sync()

			if spec == "" {
				spec = env.Config.Schedule.Spec
			}
			log := logger.WithModule("schedule")
			c := newScheduler(log)

			job := func() {
				log.Info("pipeline started", zap.Strings("functions", functions.Pipeline(env)))
				if err := functions.RunPipeline(ctx, env); err != nil {
					log.Error("pipeline failed", zap.Error(err))
					return
				}
				log.Info("pipeline finished")
			}
			if _, err := c.AddFunc(spec, job); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", spec, err)
			}

			if runNow {
				job()
			}
			c.Start()
			account := ""
			if env.Services.AccountID != nil {
				account = env.Services.AccountID(ctx)
			}
			log.Info("scheduler started", zap.String("spec", spec), zap.String("account_id", account))

			<-ctx.Done()
			<-c.Stop().Done()
			log.Info("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "cron spec (default schedule.spec from config)")
	cmd.Flags().BoolVar(&runNow, "now", false, "run the pipeline once before waiting for the schedule")

	return cmd
}

// newScheduler returns a cron that never starts a run while the previous one is going.
func newScheduler(log *zap.Logger) *cron.Cron {
	cl := cronLogger{log.Sugar()}
	return cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
