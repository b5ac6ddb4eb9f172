// Package report renders one histogram per transformed feature so a run's
// output distribution can be eyeballed next to its artifact.
package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mleprep/core/parallel"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// parallelThreshold is the feature count above which plots render concurrently.
const parallelThreshold = 8

// Options controls histogram rendering.
type Options struct {
	Bins   int
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions returns 20-bin, 4x3 inch plots.
func DefaultOptions() Options {
	return Options{Bins: 20, Width: 4 * vg.Inch, Height: 3 * vg.Inch}
}

// Histograms writes "<feature>.png" into dir for every column of X named in
// names. Columns without at least two distinct finite values are skipped and
// returned in skipped. Written files are returned in column order.
func Histograms(X mat.Matrix, names []string, dir string, opts Options) (written, skipped []string, err error) {
	_, c := X.Dims()
	if c != len(names) {
		return nil, nil, errors.NewDimensionError("report.Histograms", len(names), c, 1)
	}
	if opts.Bins <= 0 {
		opts = DefaultOptions()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create report directory %s", dir)
	}

	paths := make([]string, c)
	err = parallel.ForEach(c, parallelThreshold, func(j int) error {
		values := finiteColumn(X, j)
		if !varies(values) {
			return nil
		}
		path := filepath.Join(dir, fileName(names[j])+".png")
		if err := renderHistogram(values, names[j], path, opts); err != nil {
			return errors.Wrapf(err, "feature %s", names[j])
		}
		paths[j] = path
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for j, p := range paths {
		if p == "" {
			skipped = append(skipped, names[j])
			continue
		}
		written = append(written, p)
	}
	return written, skipped, nil
}

func renderHistogram(values []float64, title, path string, opts Options) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), opts.Bins)
	if err != nil {
		return errors.Wrap(err, "failed to build histogram")
	}
	p.Add(h)

	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

func finiteColumn(X mat.Matrix, j int) []float64 {
	col := mat.Col(nil, j, X)
	out := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func varies(values []float64) bool {
	for _, v := range values[min(1, len(values)):] {
		if v != values[0] {
			return true
		}
	}
	return false
}

// fileName maps a feature name to a portable file name.
func fileName(feature string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, feature)
}
