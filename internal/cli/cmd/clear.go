package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/storage"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the entire clipboard history",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewBoltRepository(cfg.SystemPaths.DBFile, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		items, err := repo.FetchAll()
		if err != nil {
			return err
		}
		if err := repo.SaveAll(nil); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		// With no records left, every spill file is garbage.
		if entries, err := os.ReadDir(cfg.SystemPaths.DataDir); err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(cfg.SystemPaths.DataDir, entry.Name())
				if err := os.Remove(path); err != nil {
					logger.Warn("failed to remove backing file", zap.String("path", path), zap.Error(err))
				}
			}
		}

		fmt.Printf("cleared %d item(s)\n", len(items))
		return nil
	},
}
