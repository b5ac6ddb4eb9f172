package compose

import (
	"encoding/gob"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/dataset"
	"github.com/YuminosukeSato/mleprep/pipeline"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/preprocessing"
)

func init() {
	gob.Register(&NumericPipeline{})
	gob.Register(&CategoricalPipeline{})
}

// ColumnPipeline turns a subset of table columns into a numeric block.
// Implementations must be gob-registered to be persisted inside a
// ColumnTransformer.
type ColumnPipeline interface {
	// FitTransform learns from the named columns of df and returns them transformed.
	FitTransform(df dataframe.DataFrame, columns []string) (mat.Matrix, error)

	// Transform applies the fitted state to the named columns of df.
	Transform(df dataframe.DataFrame, columns []string) (mat.Matrix, error)

	// FeatureNamesOut names the output columns for the given input columns.
	FeatureNamesOut(columns []string) []string
}

// NumericPipeline parses its columns as float64 (missing as NaN) and runs
// them through a matrix pipeline.
type NumericPipeline struct {
	Steps *pipeline.Pipeline
}

// NewNumericPipeline wraps steps as a column pipeline.
func NewNumericPipeline(steps *pipeline.Pipeline) *NumericPipeline {
	return &NumericPipeline{Steps: steps}
}

func (n *NumericPipeline) FitTransform(df dataframe.DataFrame, columns []string) (mat.Matrix, error) {
	X, err := dataset.FloatMatrix(df, columns)
	if err != nil {
		return nil, err
	}
	return n.Steps.FitTransform(X)
}

func (n *NumericPipeline) Transform(df dataframe.DataFrame, columns []string) (mat.Matrix, error) {
	X, err := dataset.FloatMatrix(df, columns)
	if err != nil {
		return nil, err
	}
	return n.Steps.Transform(X)
}

func (n *NumericPipeline) FeatureNamesOut(columns []string) []string {
	return n.Steps.FeatureNamesOut(columns)
}

// CategoricalPipeline imputes string columns, one-hot encodes them and runs
// the indicator matrix through optional matrix steps.
type CategoricalPipeline struct {
	Imputer *preprocessing.CategoricalImputer
	Encoder *preprocessing.OneHotEncoder
	Steps   *pipeline.Pipeline
}

// NewCategoricalPipeline creates a categorical branch. steps may be nil.
func NewCategoricalPipeline(imputer *preprocessing.CategoricalImputer, encoder *preprocessing.OneHotEncoder, steps *pipeline.Pipeline) *CategoricalPipeline {
	return &CategoricalPipeline{Imputer: imputer, Encoder: encoder, Steps: steps}
}

func (c *CategoricalPipeline) FitTransform(df dataframe.DataFrame, columns []string) (mat.Matrix, error) {
	if c.Imputer == nil || c.Encoder == nil {
		return nil, errors.NewValidationError("categorical pipeline", "imputer and encoder are required", columns)
	}
	X, err := dataset.StringMatrix(df, columns)
	if err != nil {
		return nil, err
	}
	X, err = c.Imputer.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fit step 'imputer'")
	}
	c.Encoder.FeatureNamesIn = append([]string(nil), columns...)
	encoded, err := c.Encoder.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fit step 'one_hot_encoder'")
	}
	if c.Steps == nil {
		return encoded, nil
	}
	return c.Steps.FitTransform(encoded)
}

func (c *CategoricalPipeline) Transform(df dataframe.DataFrame, columns []string) (mat.Matrix, error) {
	if c.Imputer == nil || c.Encoder == nil {
		return nil, errors.NewNotFittedError("CategoricalPipeline", "Transform")
	}
	X, err := dataset.StringMatrix(df, columns)
	if err != nil {
		return nil, err
	}
	X, err = c.Imputer.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transform at step 'imputer'")
	}
	encoded, err := c.Encoder.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transform at step 'one_hot_encoder'")
	}
	if c.Steps == nil {
		return encoded, nil
	}
	return c.Steps.Transform(encoded)
}

func (c *CategoricalPipeline) FeatureNamesOut(columns []string) []string {
	names := c.Encoder.FeatureNamesOut(columns)
	if c.Steps == nil {
		return names
	}
	return c.Steps.FeatureNamesOut(names)
}
