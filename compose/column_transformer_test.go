package compose

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/dataset"
	"github.com/YuminosukeSato/mleprep/pipeline"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
	"github.com/YuminosukeSato/mleprep/preprocessing"
)

const trainCSV = `gender,lunch,reading_score,writing_score,notes
female,standard,10,70,a
male,free/reduced,20,,b
,standard,,80,c
female,standard,40,90,d
`

const testCSV = `gender,lunch,reading_score,writing_score,notes
male,,,75,x
female,free/reduced,30,85,y
`

func frame(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(csv), "inline", nil)
	require.NoError(t, err)
	return ds.Frame
}

func newTransformer() *ColumnTransformer {
	num := NewNumericPipeline(pipeline.New(
		pipeline.Step{Name: "imputer", Transformer: preprocessing.NewSimpleImputer(preprocessing.StrategyMedian)},
		pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScalerDefault()},
	))
	cat := NewCategoricalPipeline(
		preprocessing.NewCategoricalImputer(preprocessing.StrategyMostFrequent),
		preprocessing.NewOneHotEncoder(),
		pipeline.New(pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScaler(false, true)}),
	)
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return NewColumnTransformer(
		Branch{Name: "numerical_pipeline", Columns: []string{"reading_score", "writing_score"}, Pipeline: num},
		Branch{Name: "categorical_pipeline", Columns: []string{"gender", "lunch"}, Pipeline: cat},
	).WithLogger(logger)
}

func TestColumnTransformerFitTransform(t *testing.T) {
	ct := newTransformer()
	out, err := ct.FitTransform(frame(t, trainCSV))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 6, c)
	assert.Equal(t, []string{
		"numerical_pipeline__reading_score",
		"numerical_pipeline__writing_score",
		"categorical_pipeline__gender_female",
		"categorical_pipeline__gender_male",
		"categorical_pipeline__lunch_free/reduced",
		"categorical_pipeline__lunch_standard",
	}, ct.FeatureNamesOut())
	assert.Equal(t, []string{"reading_score", "writing_score", "gender", "lunch"}, ct.Columns())

	num := ct.Branches[0].Pipeline.(*NumericPipeline)
	imp := num.Steps.NamedSteps()["imputer"].(*preprocessing.SimpleImputer)
	assert.Equal(t, []float64{20, 80}, imp.Statistics)

	cat := ct.Branches[1].Pipeline.(*CategoricalPipeline)
	assert.Equal(t, []string{"female", "standard"}, cat.Imputer.Statistics)

	// numeric block is centered
	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += out.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1e-9)
	}
	// categorical block is scaled but not centered, so absent categories stay 0
	assert.Equal(t, 0.0, out.At(0, 3))
	assert.Greater(t, out.At(0, 2), 0.0)
}

func TestColumnTransformerTransformUsesTrainStatistics(t *testing.T) {
	ct := newTransformer()
	_, err := ct.FitTransform(frame(t, trainCSV))
	require.NoError(t, err)

	out, err := ct.Transform(frame(t, testCSV))
	require.NoError(t, err)

	num := ct.Branches[0].Pipeline.(*NumericPipeline)
	scaler := num.Steps.NamedSteps()["scaler"].(*preprocessing.StandardScaler)
	// missing reading_score -> train median 20, never the test value 30
	assert.InDelta(t, (20-scaler.Mean[0])/scaler.Scale[0], out.At(0, 0), 1e-12)

	// missing lunch -> train mode "standard"
	cat := ct.Branches[1].Pipeline.(*CategoricalPipeline)
	catScaler := cat.Steps.NamedSteps()["scaler"].(*preprocessing.StandardScaler)
	assert.InDelta(t, 1/catScaler.Scale[3], out.At(0, 5), 1e-12)
	assert.Equal(t, 0.0, out.At(0, 4))
}

func TestColumnTransformerTransformIsIdempotent(t *testing.T) {
	ct := newTransformer()
	_, err := ct.FitTransform(frame(t, trainCSV))
	require.NoError(t, err)

	first, err := ct.Transform(frame(t, testCSV))
	require.NoError(t, err)
	second, err := ct.Transform(frame(t, testCSV))
	require.NoError(t, err)
	assert.True(t, mat.Equal(first, second))
}

func TestColumnTransformerUnknownCategory(t *testing.T) {
	ct := newTransformer()
	_, err := ct.FitTransform(frame(t, trainCSV))
	require.NoError(t, err)

	_, err = ct.Transform(frame(t, `gender,lunch,reading_score,writing_score
other,standard,1,2
`))
	require.Error(t, err)

	var unknown *errors.UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "gender", unknown.Column)
	assert.Equal(t, []string{"other"}, unknown.Values)
	assert.Contains(t, err.Error(), "categorical_pipeline")
}

func TestColumnTransformerSaveLoad(t *testing.T) {
	ct := newTransformer()
	_, err := ct.FitTransform(frame(t, trainCSV))
	require.NoError(t, err)
	want, err := ct.Transform(frame(t, testCSV))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifact", "preprocessor.gob")
	require.NoError(t, ct.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ct.FeatureNamesOut(), loaded.FeatureNamesOut())

	got, err := loaded.Transform(frame(t, testCSV))
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestColumnTransformerNotFitted(t *testing.T) {
	ct := newTransformer()

	_, err := ct.Transform(frame(t, testCSV))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = ct.Save(filepath.Join(t.TempDir(), "p.gob"))
	assert.True(t, errors.As(err, &notFitted))
}

func TestColumnTransformerValidate(t *testing.T) {
	num := NewNumericPipeline(pipeline.Make(preprocessing.NewStandardScalerDefault()))

	tests := []struct {
		name     string
		branches []Branch
	}{
		{"no branches", nil},
		{"empty name", []Branch{{Columns: []string{"a"}, Pipeline: num}}},
		{"duplicate name", []Branch{
			{Name: "x", Columns: []string{"a"}, Pipeline: num},
			{Name: "x", Columns: []string{"b"}, Pipeline: num},
		}},
		{"no columns", []Branch{{Name: "x", Pipeline: num}}},
		{"no pipeline", []Branch{{Name: "x", Columns: []string{"a"}}}},
		{"shared column", []Branch{
			{Name: "x", Columns: []string{"a"}, Pipeline: num},
			{Name: "y", Columns: []string{"a"}, Pipeline: num},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewColumnTransformer(tt.branches...).Validate()
			var validationErr *errors.ValidationError
			assert.True(t, errors.As(err, &validationErr))
		})
	}
}

func TestColumnTransformerMissingColumn(t *testing.T) {
	ct := newTransformer()
	_, err := ct.FitTransform(frame(t, "gender,lunch,reading_score\nmale,standard,1\n"))

	var missing *errors.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"writing_score"}, missing.Columns)
}

func TestHstack(t *testing.T) {
	a := mat.NewDense(2, 1, []float64{1, 2})
	b := mat.NewDense(2, 2, []float64{3, 4, 5, 6})

	out, err := hstack([]mat.Matrix{a, b})
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 3, 4, 2, 5, 6}), out))

	_, err = hstack([]mat.Matrix{a, mat.NewDense(3, 1, nil)})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
