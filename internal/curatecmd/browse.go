package curatecmd

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/food3d/curator/internal/browser"
	"github.com/food3d/curator/internal/config"
	"github.com/food3d/curator/internal/discover"
	"github.com/food3d/curator/internal/session"
)

// NewBrowseCmd creates the interactive browse command
func NewBrowseCmd() *cobra.Command {
	var dataRoot string
	var trashRoot string
	var snapRoot string
	var snapshotWidth int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse RGB/depth captures and discard bad pairs",
		Long: `Browse every class under the data root one record pair at a time.

Each pair is shown with an RGB and depth preview, its sharpness and depth
statistics and a depth histogram. Deleted pairs are moved to
<trash>/<class>/, snapshots are written to <snaps>/<class>.jpg.

Keys: ←/h →/l change image, ↑/k ↓/j change class, d delete, c snapshot, q quit.

Logs go to --log-file while the browser owns the terminal.`,
		Example: `  # Browse the default ../data tree
  food3d browse

  # Browse another tree with its own trash folder
  food3d browse --data ./captures --trash ./captures-trash`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if flagSet(cmd, "data") {
				cfg.DataRoot = dataRoot
			}
			if flagSet(cmd, "trash") {
				cfg.TrashRoot = trashRoot
			}
			if flagSet(cmd, "snaps") {
				cfg.SnapRoot = snapRoot
			}
			if flagSet(cmd, "snapshot-width") {
				cfg.SnapshotWidth = snapshotWidth
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logFile, _ := cmd.Flags().GetString("log-file")
			verbose, _ := cmd.Flags().GetBool("verbose")
			return executeBrowse(cfg, logFile, verbose)
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data", config.DefaultDataRoot, "Dataset root containing one directory per class")
	cmd.Flags().StringVar(&trashRoot, "trash", config.DefaultTrashRoot, "Directory deleted pairs are moved to")
	cmd.Flags().StringVar(&snapRoot, "snaps", config.DefaultSnapRoot, "Directory snapshots are written to")
	cmd.Flags().IntVar(&snapshotWidth, "snapshot-width", 0, "Downscale snapshots wider than this (0 keeps full size)")

	return cmd
}

func executeBrowse(cfg config.Config, logFile string, verbose bool) error {
	index, err := discover.Discover(cfg.DataRoot)
	if err != nil {
		return err
	}

	sess, err := session.New(index, session.Options{
		TrashDir:         cfg.TrashRoot,
		SnapshotDir:      cfg.SnapRoot,
		SnapshotMaxWidth: cfg.SnapshotWidth,
	})
	if err != nil {
		return fmt.Errorf("failed to start browse session in %s: %w", cfg.DataRoot, err)
	}

	// stderr output would corrupt the alternate screen
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()

		prev := slog.Default()
		slog.SetDefault(NewLogger(f, verbose))
		defer slog.SetDefault(prev)
	}

	before := index.TotalPairs()
	if _, err := tea.NewProgram(browser.New(sess), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	fmt.Printf("Browsed %d classes, %d pairs remaining (%d moved to %s)\n",
		sess.ClassCount(), index.TotalPairs(), before-index.TotalPairs(), cfg.TrashRoot)
	return nil
}
