package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-forecast/internal/config"
	"github.com/miradorstack/mirador-forecast/internal/utils"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "mirador-forecast",
	Short:         "DAU forecasting from power-law retention curves",
	Long:          "mirador-forecast fits power-law retention curves to sparse retention observations and projects daily active users as a sum of decaying cohorts.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(lifetimeCmd)
}

// loadConfig resolves configuration and a stderr logger for one-shot commands.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, utils.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON), nil
}
