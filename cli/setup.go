package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/compozy/contentkit/engine/infra/monitoring"
	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type monitoringCtxKey struct{}

// SetupGlobalConfig loads configuration, configures logging and monitoring,
// and stores all three on the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	envFile, err := loadEnvFile(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	_, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(cfg.Log.Level, logJSON || cfg.Log.JSON, logSource)
	log := logger.GetDefault()
	if envFile != "" {
		log.Debug("Loaded environment file", "path", envFile)
	}
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	wantMetrics, err := cmd.Flags().GetBool("print-metrics")
	if err != nil {
		return fmt.Errorf("failed to get print-metrics flag: %w", err)
	}
	monCfg := monitoring.FromAppConfig(cfg)
	monCfg.Enabled = monCfg.Enabled || wantMetrics
	svc := monitoring.NewMonitoringServiceWithFallback(ctx, monCfg)
	ctx = context.WithValue(ctx, monitoringCtxKey{}, svc)
	cmd.SetContext(ctx)
	return nil
}

// loadEnvFile loads --env-file into the process environment without
// overriding variables that are already set. A missing file is not an error.
// It returns the absolute path when a file was loaded.
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return "", nil
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	if err := godotenv.Load(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}

func loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	overrides := map[string]any{}
	if cmd.Flags().Changed("log-level") {
		level, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return nil, fmt.Errorf("failed to get log-level flag: %w", err)
		}
		overrides["log.level"] = level
	}
	if cmd.Flags().Changed("log-json") {
		overrides["log.json"] = true
	}
	loader, err := config.NewLoader()
	if err != nil {
		return nil, err
	}
	var sources []config.Source
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewCLIProvider(overrides))
	cfg, err := loader.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// monitoringFrom returns the monitoring service stored by SetupGlobalConfig.
func monitoringFrom(ctx context.Context) *monitoring.Service {
	if svc, ok := ctx.Value(monitoringCtxKey{}).(*monitoring.Service); ok && svc != nil {
		return svc
	}
	return monitoring.NewMonitoringServiceWithFallback(ctx, nil)
}

func printMetrics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := monitoringFrom(ctx)
	defer func() {
		if err := svc.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Debug("Monitoring shutdown failed", "error", err)
		}
	}()
	enabled, err := cmd.Flags().GetBool("print-metrics")
	if err != nil || !enabled {
		return err
	}
	return svc.WriteText(cmd.OutOrStdout())
}
