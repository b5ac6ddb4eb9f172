// Package compose routes table columns through per-branch pipelines and
// stacks the branch outputs side by side, like scikit-learn's
// ColumnTransformer with remainder="drop".
package compose

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/core/model"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
)

// Branch sends Columns through Pipeline. Its output block is placed in the
// position of the branch in ColumnTransformer.Branches.
type Branch struct {
	Name     string
	Columns  []string
	Pipeline ColumnPipeline
}

// ColumnTransformer applies each branch to its columns and concatenates the
// results column-wise in branch order. Columns not named by any branch are
// dropped.
//
// The fitted transformer is persisted with gob; all learned state lives in
// exported fields.
type ColumnTransformer struct {
	Branches []Branch
	State    *model.StateManager

	// FeatureNames holds one "<branch>__<feature>" name per output column.
	FeatureNames []string

	logger log.Logger
}

// NewColumnTransformer creates an unfitted transformer.
func NewColumnTransformer(branches ...Branch) *ColumnTransformer {
	return &ColumnTransformer{
		Branches: branches,
		State:    model.NewStateManager(),
	}
}

// WithLogger sets the logger used for per-branch debug records.
func (ct *ColumnTransformer) WithLogger(logger log.Logger) *ColumnTransformer {
	ct.logger = logger
	return ct
}

func (ct *ColumnTransformer) getLogger() log.Logger {
	if ct.logger == nil {
		ct.logger = log.GetProvider().GetLoggerWithName("ColumnTransformer")
	}
	return ct.logger
}

// IsFitted reports whether FitTransform has completed.
func (ct *ColumnTransformer) IsFitted() bool {
	return ct.State != nil && ct.State.IsFitted()
}

// Validate checks that branches are named uniquely, each has columns and a
// pipeline, and no column is claimed twice.
func (ct *ColumnTransformer) Validate() error {
	if len(ct.Branches) == 0 {
		return errors.NewValidationError("branches", "at least one branch is required", 0)
	}
	names := make(map[string]bool, len(ct.Branches))
	owner := make(map[string]string)
	for _, b := range ct.Branches {
		if b.Name == "" {
			return errors.NewValidationError("branches", "branch name must not be empty", b.Columns)
		}
		if names[b.Name] {
			return errors.NewValidationError("branches", "branch names must be unique", b.Name)
		}
		names[b.Name] = true
		if b.Pipeline == nil {
			return errors.NewValidationError("branches", "branch has no pipeline", b.Name)
		}
		if len(b.Columns) == 0 {
			return errors.NewValidationError("branches", "branch has no columns", b.Name)
		}
		for _, col := range b.Columns {
			if prev, ok := owner[col]; ok {
				return errors.NewValidationError("branches",
					fmt.Sprintf("column claimed by both %s and %s", prev, b.Name), col)
			}
			owner[col] = b.Name
		}
	}
	return nil
}

// FitTransform fits every branch on df and returns the stacked output.
func (ct *ColumnTransformer) FitTransform(df dataframe.DataFrame) (*mat.Dense, error) {
	if err := ct.Validate(); err != nil {
		return nil, err
	}
	if ct.State == nil {
		ct.State = model.NewStateManager()
	}

	blocks := make([]mat.Matrix, len(ct.Branches))
	var names []string
	for i, b := range ct.Branches {
		out, err := b.Pipeline.FitTransform(df, b.Columns)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fit branch '%s'", b.Name)
		}
		blocks[i] = out
		for _, n := range b.Pipeline.FeatureNamesOut(b.Columns) {
			names = append(names, b.Name+"__"+n)
		}

		r, c := out.Dims()
		ct.getLogger().Debug("Branch fitted",
			log.ComponentKey, b.Name,
			log.OperationKey, log.OperationFitTransform,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	result, err := hstack(blocks)
	if err != nil {
		return nil, err
	}
	if _, c := result.Dims(); c != len(names) {
		return nil, errors.NewDimensionError("ColumnTransformer.FitTransform", len(names), c, 1)
	}

	ct.FeatureNames = names
	ct.State.SetDimensions(len(names), df.Nrow())
	ct.State.SetFitted()
	return result, nil
}

// Transform applies the fitted branches to df without refitting.
func (ct *ColumnTransformer) Transform(df dataframe.DataFrame) (*mat.Dense, error) {
	if !ct.IsFitted() {
		return nil, errors.NewNotFittedError("ColumnTransformer", "Transform")
	}

	blocks := make([]mat.Matrix, len(ct.Branches))
	for i, b := range ct.Branches {
		out, err := b.Pipeline.Transform(df, b.Columns)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform branch '%s'", b.Name)
		}
		blocks[i] = out
	}

	result, err := hstack(blocks)
	if err != nil {
		return nil, err
	}
	if _, c := result.Dims(); c != len(ct.FeatureNames) {
		return nil, errors.NewDimensionError("ColumnTransformer.Transform", len(ct.FeatureNames), c, 1)
	}
	return result, nil
}

// FeatureNamesOut returns the output column names of the fitted transformer.
func (ct *ColumnTransformer) FeatureNamesOut() []string {
	return append([]string(nil), ct.FeatureNames...)
}

// Columns returns every input column used by a branch, in branch order.
func (ct *ColumnTransformer) Columns() []string {
	var cols []string
	for _, b := range ct.Branches {
		cols = append(cols, b.Columns...)
	}
	return cols
}

// Save writes the transformer to path with gob, creating parent directories.
func (ct *ColumnTransformer) Save(path string) error {
	if !ct.IsFitted() {
		return errors.NewNotFittedError("ColumnTransformer", "Save")
	}
	return model.SaveModel(ct, path)
}

// Load reads a transformer written by Save.
func Load(path string) (*ColumnTransformer, error) {
	ct := &ColumnTransformer{}
	if err := model.LoadModel(ct, path); err != nil {
		return nil, err
	}
	if !ct.IsFitted() {
		return nil, errors.NewNotFittedError("ColumnTransformer", "Load")
	}
	return ct, nil
}

func (ct *ColumnTransformer) String() string {
	parts := make([]string, len(ct.Branches))
	for i, b := range ct.Branches {
		parts[i] = fmt.Sprintf("%s%v", b.Name, b.Columns)
	}
	return fmt.Sprintf("ColumnTransformer(%v)", parts)
}

// hstack concatenates blocks column-wise. All blocks must have the same
// number of rows.
func hstack(blocks []mat.Matrix) (*mat.Dense, error) {
	rows, total := -1, 0
	for _, b := range blocks {
		r, c := b.Dims()
		if rows >= 0 && r != rows {
			return nil, errors.NewDimensionError("hstack", rows, r, 0)
		}
		rows = r
		total += c
	}
	if rows <= 0 || total == 0 {
		return nil, errors.ErrEmptyData
	}

	out := mat.NewDense(rows, total, nil)
	offset := 0
	for _, b := range blocks {
		_, c := b.Dims()
		out.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(b)
		offset += c
	}
	return out, nil
}
