package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/internal/config"
	"github.com/YuminosukeSato/mleprep/internal/metrics"
	"github.com/YuminosukeSato/mleprep/internal/registry"
	"github.com/YuminosukeSato/mleprep/internal/report"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
	"github.com/YuminosukeSato/mleprep/transformation"
)

func newTransformCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Fit the preprocessor on the train split and transform both splits",
		Long: `Reads the train and test CSV files, fits the column transformer on the
train inputs, transforms both splits with the target appended as the last
column and saves the fitted preprocessor.

Optionally records the run in the registry, writes Prometheus metrics to a
textfile and renders one histogram per transformed train feature.`,
		Args: cobra.NoArgs,
		RunE: runTransform,
	}

	cmd.Flags().String("train", "", "train CSV file")
	cmd.Flags().String("test", "", "test CSV file")
	cmd.Flags().String("artifact", "", "output path of the fitted preprocessor")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().String("registry", "", "run registry database (empty string disables)")
	cmd.Flags().String("report-dir", "", "write feature histograms to this directory")
	return cmd
}

func runTransform(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd.Context())
	if cfg.TrainPath == "" {
		return errors.NewValidationError("train", "a train CSV file is required", cfg.TrainPath)
	}
	if cfg.TestPath == "" {
		return errors.NewValidationError("test", "a test CSV file is required", cfg.TestPath)
	}

	logger := log.GetProvider().GetLoggerWithName("cli")
	var m *metrics.Run
	if cfg.MetricsFile != "" {
		m = metrics.NewRun()
	}

	started := time.Now()
	dt := transformation.NewDataTransformation(transformation.Config{PreprocessorPath: cfg.ArtifactPath}, nil)
	train, test, artifact, runErr := dt.Run(cfg.TrainPath, cfg.TestPath)

	rec := registry.Run{
		TrainPath:    cfg.TrainPath,
		TestPath:     cfg.TestPath,
		ArtifactPath: cfg.ArtifactPath,
		StartedAt:    started,
		Duration:     time.Since(started),
	}
	if runErr != nil {
		rec.Status = registry.StatusFailed
		rec.Error = runErr.Error()
		if m != nil {
			m.Failures.WithLabelValues(failedStep(runErr)).Inc()
		}
		if err := finish(cmd.Context(), cfg, m, rec, logger); err != nil {
			logger.Warn("Failed to record failed run", "error", err.Error())
		}
		return runErr
	}

	res := dt.LastResult()
	rec.Status = registry.StatusSucceeded
	rec.TrainRows = res.TrainRows
	rec.TestRows = res.TestRows
	rec.Features = len(res.FeatureNames)
	rec.Duration = res.Duration
	sum, err := registry.FileSHA256(artifact)
	if err != nil {
		return err
	}
	rec.ArtifactSHA256 = sum

	if m != nil {
		m.Rows.WithLabelValues("train").Set(float64(res.TrainRows))
		m.Rows.WithLabelValues("test").Set(float64(res.TestRows))
		m.Features.Set(float64(len(res.FeatureNames)))
		m.Duration.Set(res.Duration.Seconds())
		if info, err := os.Stat(artifact); err == nil {
			m.ArtifactSize.Set(float64(info.Size()))
		}
		m.LastSuccess.SetToCurrentTime()
	}

	if cfg.ReportDir != "" {
		_, c := train.Dims()
		features := train.Slice(0, res.TrainRows, 0, c-1)
		written, skipped, err := report.Histograms(features, res.FeatureNames, cfg.ReportDir, report.DefaultOptions())
		if err != nil {
			return err
		}
		logger.Info("Wrote feature histograms",
			log.PathKey, cfg.ReportDir,
			"written", len(written),
			"skipped", len(skipped),
		)
	}

	if err := finish(cmd.Context(), cfg, m, rec, logger); err != nil {
		return err
	}
	return renderSummary(cmd.OutOrStdout(), train, test, res, sum)
}

// finish writes the metrics textfile and records the run, whichever are
// enabled.
func finish(ctx context.Context, cfg *config.Config, m *metrics.Run, rec registry.Run, logger log.Logger) error {
	if m != nil {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	if cfg.RegistryPath == "" {
		return nil
	}
	store, err := registry.Open(ctx, cfg.RegistryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.Record(ctx, rec)
	if err != nil {
		return err
	}
	logger.Debug("Recorded run", log.RunIDKey, saved.ID, "status", string(saved.Status))
	return nil
}

func failedStep(err error) string {
	var te *errors.TransformationError
	if errors.As(err, &te) {
		return te.Step
	}
	return "unknown"
}

func renderSummary(w io.Writer, train, test *mat.Dense, res *transformation.Result, sum string) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Split", "Rows", "Columns"})
	for _, s := range []struct {
		name string
		m    *mat.Dense
	}{{"train", train}, {"test", test}} {
		r, c := s.m.Dims()
		t.AppendRow(table.Row{s.name, r, c})
	}
	t.Render()

	_, err := fmt.Fprintf(w, "features: %d (target appended last)\nartifact: %s\nsha256:   %s\nduration: %s\n",
		len(res.FeatureNames), res.ArtifactPath, sum, res.Duration.Round(time.Millisecond))
	return err
}
