package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipkeep/clipkeep/internal/storage"
	"github.com/clipkeep/clipkeep/internal/types"
)

var (
	historyQuery string
	historyKind  string
	historyLimit int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Dump the stored clipboard history",
	Long: `Print the persisted clipboard history, most recent first, with
optional free-text and content-type filters.`,
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

		shown := 0
		for _, item := range items {
			if historyKind != "" && string(item.Content.Kind) != historyKind {
				continue
			}
			if historyQuery != "" && !matchesQuery(item, historyQuery) {
				continue
			}
			printItem(item)
			shown++
			if historyLimit > 0 && shown >= historyLimit {
				break
			}
		}

		fmt.Printf("\n%d item(s)\n", shown)
		return nil
	},
}

func matchesQuery(item *types.ClipboardItem, query string) bool {
	needle := strings.ToLower(query)
	return strings.Contains(strings.ToLower(item.Preview), needle) ||
		strings.Contains(strings.ToLower(item.Content.Path), needle) ||
		strings.Contains(string(item.Content.Kind), needle) ||
		strings.Contains(strings.ToLower(item.SourceApp.Name), needle)
}

func printItem(item *types.ClipboardItem) {
	residency := "memory"
	if item.Content.OnDisk() {
		residency = "disk"
	}
	fmt.Printf("\n[%s] %s  (%s, %s)\n", item.Created.Format(time.DateTime),
		item.Content.Kind, residency, item.ID[:8])
	if item.Preview != "" {
		fmt.Printf("  %s\n", item.Preview)
	}
	if item.SourceApp.Name != "" && item.SourceApp != types.UnknownApp {
		fmt.Printf("  from: %s\n", item.SourceApp.Name)
	}
	if len(item.Labels) > 0 {
		fmt.Printf("  labels: %s\n", strings.Join(item.Labels, ", "))
	}
}

func init() {
	historyCmd.Flags().StringVar(&historyQuery, "query", "", "free-text filter")
	historyCmd.Flags().StringVar(&historyKind, "type", "", "content-type filter (text, url, image, file, richtext, unknown)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum items to print (0 = all)")
}
