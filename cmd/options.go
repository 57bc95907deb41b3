package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/config"
	"tasnim.dev/aria-idc/internal/functions"
	"tasnim.dev/aria-idc/internal/logger"
)

// Options are the flags shared by every command.
type Options struct {
	Profile    string
	Region     string
	ConfigPath string
}

// Bind registers the shared flags on the root command.
func (o *Options) Bind(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&o.Profile, "profile", "p", "", "AWS profile to use")
	root.PersistentFlags().StringVarP(&o.Region, "region", "r", "", "AWS region to use")
	root.PersistentFlags().StringVar(&o.ConfigPath, "config", "", "config file (default $ARIA_CONFIG or ~/.config/aria/config.yaml)")
}

// Config loads and validates the configuration and installs the logger.
func (o *Options) Config() (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.DefaultProfile, cfg.DefaultRegion = cfg.Merge(o.Profile, o.Region)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}

// Env builds the function environment from the loaded configuration.
func (o *Options) Env(ctx context.Context) (*functions.Env, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	env, err := functions.NewEnv(ctx, cfg, logger.WithModule("functions"))
	if err != nil {
		return nil, err
	}
	logger.Logger().Debug("environment ready",
		zap.String("profile", cfg.DefaultProfile),
		zap.String("region", cfg.DefaultRegion),
		zap.String("store", cfg.Store.Backend),
		zap.String("table_prefix", cfg.Store.TablePrefix))
	return env, nil
}

// DefaultArgs runs the lambda command when the binary starts inside the Lambda
// runtime without arguments.
func DefaultArgs(args []string, getenv func(string) string) []string {
	if len(args) == 0 && getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return []string{"lambda"}
	}
	return args
}
