// Package cli implements the healthday command-line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/config"
	"github.com/yourname/healthday/internal/service"
	"github.com/yourname/healthday/internal/storage"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "healthday",
	Short:         "Daily health summary over a local health record store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(stepsCmd)
}

// env is what every command needs: config, logger, zone and an open gateway.
type env struct {
	cfg      *config.Config
	logger   *internal.ZapLogger
	loc      *time.Location
	gateway  storage.Gateway
	editOpts []service.EditOption
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err := internal.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := service.ParsePolicyFromString(cfg.ParsePolicy)
	if err != nil {
		return nil, err
	}
	mode, err := service.CorrectionModeFromString(cfg.CorrectionMode)
	if err != nil {
		return nil, err
	}
	gw, err := storage.NewGateway(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &env{
		cfg:      cfg,
		logger:   logger,
		loc:      loc,
		gateway:  gw,
		editOpts: []service.EditOption{service.WithParsePolicy(policy), service.WithCorrectionMode(mode), service.WithEditLogger(logger)},
	}, nil
}

func (e *env) close() {
	if err := e.gateway.Close(); err != nil {
		e.logger.Errorf("closing storage: %v", err)
	}
	_ = e.logger.Sync()
}

// dateFlag resolves a --date value, defaulting to today in loc.
func dateFlag(s string, loc *time.Location) (internal.Date, error) {
	if s == "" {
		return service.Today(loc), nil
	}
	return internal.ParseDate(s)
}
