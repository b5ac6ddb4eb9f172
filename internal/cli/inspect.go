package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mleprep/compose"
	"github.com/YuminosukeSato/mleprep/pipeline"
	"github.com/YuminosukeSato/mleprep/preprocessing"
	"github.com/YuminosukeSato/mleprep/transformation"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the statistics learned by a saved preprocessor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			ct, err := transformation.LoadPreprocessor(cfg.ArtifactPath)
			if err != nil {
				return err
			}
			return renderPreprocessor(cmd.OutOrStdout(), ct)
		},
	}
	cmd.Flags().String("artifact", "", "path of the fitted preprocessor")
	return cmd
}

func renderPreprocessor(w io.Writer, ct *compose.ColumnTransformer) error {
	if _, err := fmt.Fprintf(w, "%s\n", ct); err != nil {
		return err
	}
	for _, b := range ct.Branches {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(b.Name)

		switch p := b.Pipeline.(type) {
		case *compose.NumericPipeline:
			imp, sc := numericSteps(p.Steps)
			t.AppendHeader(table.Row{"Column", "Fill", "Mean", "Scale"})
			for j, col := range b.Columns {
				t.AppendRow(table.Row{col, at(imputerStats(imp), j), at(scalerMean(sc), j), at(scalerScale(sc), j)})
			}
		case *compose.CategoricalPipeline:
			t.AppendHeader(table.Row{"Column", "Fill", "Categories"})
			for j, col := range b.Columns {
				fill := ""
				if p.Imputer != nil && j < len(p.Imputer.Statistics) {
					fill = p.Imputer.Statistics[j]
				}
				cats := ""
				if p.Encoder != nil && j < len(p.Encoder.Categories) {
					cats = strings.Join(p.Encoder.Categories[j], ", ")
				}
				t.AppendRow(table.Row{col, fill, cats})
			}
		default:
			t.AppendHeader(table.Row{"Column"})
			for _, col := range b.Columns {
				t.AppendRow(table.Row{col})
			}
		}
		t.Render()
	}
	_, err := fmt.Fprintf(w, "output features: %d\n", len(ct.FeatureNamesOut()))
	return err
}

func numericSteps(p *pipeline.Pipeline) (imp *preprocessing.SimpleImputer, sc *preprocessing.StandardScaler) {
	if p == nil {
		return nil, nil
	}
	for _, s := range p.Steps {
		switch tr := s.Transformer.(type) {
		case *preprocessing.SimpleImputer:
			imp = tr
		case *preprocessing.StandardScaler:
			sc = tr
		}
	}
	return imp, sc
}

func imputerStats(imp *preprocessing.SimpleImputer) []float64 {
	if imp == nil {
		return nil
	}
	return imp.Statistics
}

func scalerMean(sc *preprocessing.StandardScaler) []float64 {
	if sc == nil {
		return nil
	}
	return sc.Mean
}

func scalerScale(sc *preprocessing.StandardScaler) []float64 {
	if sc == nil {
		return nil
	}
	return sc.Scale
}

// at formats values[j], or "-" when absent.
func at(values []float64, j int) string {
	if j >= len(values) {
		return "-"
	}
	return fmt.Sprintf("%.4g", values[j])
}
