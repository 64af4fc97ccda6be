package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/notify"
	"github.com/clipkeep/clipkeep/internal/pasteboard"
	"github.com/clipkeep/clipkeep/internal/service"
	"github.com/clipkeep/clipkeep/internal/storage"
)

var runDuration time.Duration

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clipboard capture daemon",
	Long: `Run the capture daemon, which polls the OS clipboard for changes,
classifies new content and stores it in the history database.

A duration can be given for testing; otherwise the daemon runs until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewBoltRepository(cfg.SystemPaths.DBFile, logger)
		if err != nil {
			logger.Error("failed to open repository", zap.Error(err))
			return err
		}

		var pb pasteboard.Pasteboard
		if sys, err := pasteboard.NewSystemPasteboard(); err == nil {
			pb = sys
		} else {
			logger.Warn("system clipboard binding unavailable, using text-only fallback",
				zap.Error(err))
			pb = pasteboard.NewAtottoPasteboard()
		}

		svc, err := service.New(cfg, service.Options{
			Pasteboard: pb,
			Repository: repo,
			Notifier:   notify.NewLogNotifier(logger),
		}, logger)
		if err != nil {
			logger.Error("failed to build service", zap.Error(err))
			return err
		}
		defer svc.Close()

		svc.StartMonitoring()
		logger.Info("clipkeep daemon running")

		if runDuration > 0 {
			time.Sleep(runDuration)
		} else {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
		}

		svc.StopMonitoring()
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "run for a fixed duration then exit (testing)")
}
