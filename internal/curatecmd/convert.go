package curatecmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/food3d/curator/internal/record"
)

// NewConvertCmd creates the convert command for bare .npy captures
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert FILE.npy...",
		Short: "Wrap .npy arrays into .npz archives next to them",
		Long: `Wrap each .npy file into a .npz archive holding the array under the
key arr_0, so older captures can be read like the rest of the dataset.
The .npy files are left in place.`,
		Example: `  food3d convert ../data/apple/*.npy`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeConvert(args, cmd.OutOrStdout())
		},
	}
	return cmd
}

func executeConvert(paths []string, out io.Writer) error {
	var errs []error
	for _, p := range paths {
		dst, err := record.ConvertNPYToNPZ(p)
		if err != nil {
			slog.Error("Failed to convert file", "path", p, "error", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", p, dst)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}
