package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/pkg/utils"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Shared resources, built in the persistent pre-run
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clipkeep",
	Short: "A clipboard history daemon with typed content and tiered storage",
	Long: `Clipkeep watches the OS clipboard and keeps a deduplicated,
size-bounded, searchable history of typed content snapshots:
  • Poll-based change detection with content classification
  • Memory-vs-disk payload tiering with spillover thresholds
  • Retention by count and age, plus orphaned-file cleanup
  • Linear multi-field search over the bounded history`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger, err = utils.NewLogger(level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(
		runCmd,
		historyCmd,
		clearCmd,
		versionCmd,
	)
}
