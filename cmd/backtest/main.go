// Command threshold-lab runs threshold studies from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"threshold-lab/internal/app"
	"threshold-lab/internal/config"
	"threshold-lab/internal/logging"
	"threshold-lab/internal/observability"
)

var (
	configPath string

	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "threshold-lab",
	Short: "Threshold detection and capital-constrained backtesting",
	Long: `threshold-lab measures how often and how fast entries cross percentage
levels from their entry price, then replays them through a trading book with
a fixed trade size, a daily trade cap and a capital constraint.

Configuration is read from --config (YAML) with THRESHOLD_LAB_* environment
overrides, e.g. THRESHOLD_LAB_STUDY_TRADE_SIZE=5000.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		metrics = observability.NewMetrics("")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openApp connects the configured backends.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger, metrics)
}
