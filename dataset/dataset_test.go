package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

const sample = `gender,reading_score,lunch,math_score
female,72,standard,71
male,NA,,69
,90,free/reduced,
male,47,standard,47
`

func TestReadAndSplit(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "train.csv", []string{"gender", "reading_score", "math_score"})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Rows())

	features, y, err := ds.Split("math_score")
	require.NoError(t, err)
	assert.Equal(t, []string{"gender", "reading_score", "lunch"}, features.Names())
	require.Len(t, y, 4)
	assert.Equal(t, 71.0, y[0])
	assert.True(t, math.IsNaN(y[2]))
	assert.Equal(t, 47.0, y[3])
}

func TestFloatMatrix(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "train.csv", nil)
	require.NoError(t, err)

	m, err := FloatMatrix(ds.Frame, []string{"reading_score", "math_score"})
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 72.0, m.At(0, 0))
	assert.True(t, math.IsNaN(m.At(1, 0)))
	assert.Equal(t, 90.0, m.At(2, 0))
}

func TestFloatMatrixRejectsText(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "train.csv", nil)
	require.NoError(t, err)

	_, err = FloatMatrix(ds.Frame, []string{"gender"})
	var valueErr *errors.ValueError
	require.True(t, errors.As(err, &valueErr))
	assert.Contains(t, err.Error(), "gender")
}

func TestStringMatrix(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "train.csv", nil)
	require.NoError(t, err)

	table, err := StringMatrix(ds.Frame, []string{"lunch", "gender"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"standard", "female"},
		{"", "male"},
		{"free/reduced", ""},
		{"standard", "male"},
	}, table)
}

func TestMissingColumns(t *testing.T) {
	_, err := Read(strings.NewReader(sample), "test.csv", []string{"writing_score", "gender", "race_ethnicity"})
	require.Error(t, err)

	var missing *errors.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "test.csv", missing.Source)
	assert.Equal(t, []string{"race_ethnicity", "writing_score"}, missing.Columns)
}

func TestSplitMissingTarget(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "train.csv", nil)
	require.NoError(t, err)

	_, _, err = ds.Split("writing_score")
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	ds, err := Load(path, []string{"gender"})
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)

	_, err = Load(filepath.Join(t.TempDir(), "absent.csv"), nil)
	assert.Error(t, err)
}

func TestMissingMarkers(t *testing.T) {
	for _, marker := range []string{"N/A", "n/a", "NULL", "null", "None", "<NA>", "#N/A", "nan", "-NaN", "NA", ""} {
		t.Run(marker, func(t *testing.T) {
			data := "gender,reading_score\nfemale,72\n" + marker + "," + marker + "\nmale,40\n"
			ds, err := Read(strings.NewReader(data), "train.csv", []string{"gender", "reading_score"})
			require.NoError(t, err)

			X, err := FloatMatrix(ds.Frame, []string{"reading_score"})
			require.NoError(t, err)
			assert.Equal(t, 72.0, X.At(0, 0))
			assert.True(t, math.IsNaN(X.At(1, 0)))

			table, err := StringMatrix(ds.Frame, []string{"gender"})
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"female"}, {""}, {"male"}}, table)
		})
	}
}

func TestMissingMarkersAreCaseSensitive(t *testing.T) {
	ds, err := Read(strings.NewReader("reading_score\n72\nNone\nNONE\n"), "train.csv", nil)
	require.NoError(t, err)

	_, err = FloatMatrix(ds.Frame, []string{"reading_score"})
	var valueErr *errors.ValueError
	require.True(t, errors.As(err, &valueErr))
	assert.Contains(t, err.Error(), `"NONE"`)
}
