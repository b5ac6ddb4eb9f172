package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mleprep/internal/registry"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded transformation runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if cfg.RegistryPath == "" {
				return errors.NewValidationError("registry", "a registry database is required", cfg.RegistryPath)
			}
			store, err := registry.Open(cmd.Context(), cfg.RegistryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), cfg.Limit)
			if err != nil {
				return err
			}
			return renderRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().String("registry", "", "run registry database")
	cmd.Flags().Int("limit", 0, "maximum number of runs to show (0 for all)")
	return cmd
}

func renderRuns(w io.Writer, runs []*registry.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Train", "Test", "Features", "Duration", "Artifact"})
	for _, r := range runs {
		artifact := r.ArtifactPath
		if r.Status == registry.StatusFailed {
			artifact = r.Error
		} else if len(r.ArtifactSHA256) >= 12 {
			artifact += " (" + r.ArtifactSHA256[:12] + ")"
		}
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.TrainRows,
			r.TestRows,
			r.Features,
			r.Duration.Round(time.Millisecond),
			artifact,
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
