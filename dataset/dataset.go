// Package dataset loads delimited tabular files into gota DataFrames and
// converts selected columns into the matrix and string-table shapes the
// preprocessing stages consume.
//
// Every column is read as a string and parsed on demand, so a numeric column
// with a stray token fails loudly instead of being silently retyped.
package dataset

import (
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// MissingValues are the cell tokens treated as missing: the default NA
// markers of pandas.read_csv plus "<nil>", which gota writes for nil cells.
// Matching is exact and case-sensitive.
var MissingValues = []string{
	"",
	"#N/A", "#N/A N/A", "#NA",
	"-1.#IND", "-1.#QNAN", "1.#IND", "1.#QNAN",
	"-NaN", "-nan", "NaN", "nan",
	"<NA>", "N/A", "NA", "n/a",
	"NULL", "null", "None",
	"<nil>",
}

// Dataset is a table loaded from a single source.
type Dataset struct {
	Source string
	Frame  dataframe.DataFrame
}

// Load reads the CSV file at path. Every name in required must be a column
// of the file.
func Load(path string, required []string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	return Read(f, path, required)
}

// Read reads CSV data with a header row from r. source names the data in
// error messages.
func Read(r io.Reader, source string, required []string) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(MissingValues),
	)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse %s", source)
	}
	if df.Nrow() == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no rows", source)
	}
	if err := RequireColumns(df, source, required); err != nil {
		return nil, err
	}
	return &Dataset{Source: source, Frame: df}, nil
}

// RequireColumns returns a MissingColumnError listing every name in required
// that df lacks.
func RequireColumns(df dataframe.DataFrame, source string, required []string) error {
	have := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		have[name] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.NewMissingColumnError(source, missing)
	}
	return nil
}

// Rows returns the number of observations.
func (d *Dataset) Rows() int {
	return d.Frame.Nrow()
}

// Split separates the target column from the input features. The target is
// parsed as float64 with missing cells as NaN; row order is preserved.
func (d *Dataset) Split(target string) (dataframe.DataFrame, []float64, error) {
	if err := RequireColumns(d.Frame, d.Source, []string{target}); err != nil {
		return dataframe.DataFrame{}, nil, err
	}

	y, err := parseFloats(d.Frame.Col(target), target)
	if err != nil {
		return dataframe.DataFrame{}, nil, errors.Wrapf(err, "%s", d.Source)
	}

	features := d.Frame.Drop(target)
	if features.Err != nil {
		return dataframe.DataFrame{}, nil, errors.Wrapf(features.Err, "failed to drop %s", target)
	}
	return features, y, nil
}

// FloatMatrix returns the named columns of df as a rows x len(cols) matrix.
// Missing cells become NaN; any other non-numeric cell is an error.
func FloatMatrix(df dataframe.DataFrame, cols []string) (*mat.Dense, error) {
	if err := RequireColumns(df, "features", cols); err != nil {
		return nil, err
	}
	rows := df.Nrow()
	if rows == 0 || len(cols) == 0 {
		return nil, errors.ErrEmptyData
	}

	out := mat.NewDense(rows, len(cols), nil)
	for j, name := range cols {
		values, err := parseFloats(df.Col(name), name)
		if err != nil {
			return nil, err
		}
		out.SetCol(j, values)
	}
	return out, nil
}

// StringMatrix returns the named columns of df as a row-major table.
// Missing cells become the empty string.
func StringMatrix(df dataframe.DataFrame, cols []string) ([][]string, error) {
	if err := RequireColumns(df, "features", cols); err != nil {
		return nil, err
	}
	rows := df.Nrow()
	if rows == 0 || len(cols) == 0 {
		return nil, errors.ErrEmptyData
	}

	out := make([][]string, rows)
	for i := range out {
		out[i] = make([]string, len(cols))
	}
	for j, name := range cols {
		s := df.Col(name)
		missing := s.IsNaN()
		records := s.Records()
		for i := 0; i < rows; i++ {
			if !missing[i] {
				out[i][j] = strings.TrimSpace(records[i])
			}
		}
	}
	return out, nil
}

func parseFloats(s series.Series, name string) ([]float64, error) {
	missing := s.IsNaN()
	records := s.Records()
	values := make([]float64, len(records))
	for i, rec := range records {
		if missing[i] {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec), 64)
		if err != nil {
			return nil, errors.NewValueError("dataset.parse",
				"column "+name+" row "+strconv.Itoa(i)+": "+strconv.Quote(rec)+" is not a number")
		}
		values[i] = v
	}
	return values, nil
}
