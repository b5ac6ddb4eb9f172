package transformation

import (
	"github.com/YuminosukeSato/mleprep/compose"
	"github.com/YuminosukeSato/mleprep/pipeline"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
	"github.com/YuminosukeSato/mleprep/preprocessing"
)

// Branch names, also used as output feature name prefixes.
const (
	NumericalBranch   = "numerical_pipeline"
	CategoricalBranch = "categorical_pipeline"
)

// StepBuildPreprocessor names the construction step in a TransformationError.
const StepBuildPreprocessor = "build preprocessor"

// Builder constructs unfitted preprocessors for a set of column roles.
type Builder struct {
	roles  ColumnRoles
	logger log.Logger
}

// NewBuilder creates a Builder. A nil logger uses the process-wide provider.
func NewBuilder(roles ColumnRoles, logger log.Logger) *Builder {
	if logger == nil {
		logger = log.GetProvider().GetLoggerWithName("transformation")
	}
	return &Builder{roles: roles, logger: logger}
}

// Build returns an unfitted transformer routing numeric columns through
// median imputation and standardization, and categorical columns through
// most-frequent imputation, one-hot encoding and scaling without centering.
// Output columns are ordered [numeric | categorical].
func (b *Builder) Build() (*compose.ColumnTransformer, error) {
	if err := b.roles.Validate(); err != nil {
		return nil, errors.NewTransformationError(StepBuildPreprocessor, err)
	}

	numeric := compose.NewNumericPipeline(pipeline.New(
		pipeline.Step{Name: "imputer", Transformer: preprocessing.NewSimpleImputer(preprocessing.StrategyMedian)},
		pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScaler(true, true)},
	).WithLogger(b.logger))

	categorical := compose.NewCategoricalPipeline(
		preprocessing.NewCategoricalImputer(preprocessing.StrategyMostFrequent),
		preprocessing.NewOneHotEncoder(),
		pipeline.New(
			pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScaler(false, true)},
		).WithLogger(b.logger),
	)

	b.logger.Info("Numerical pipeline implemented", log.ColumnsKey, b.roles.Numerical)
	b.logger.Info("Categorical pipeline implemented", log.ColumnsKey, b.roles.Categorical)

	var branches []compose.Branch
	if len(b.roles.Numerical) > 0 {
		branches = append(branches, compose.Branch{Name: NumericalBranch, Columns: b.roles.Numerical, Pipeline: numeric})
	}
	if len(b.roles.Categorical) > 0 {
		branches = append(branches, compose.Branch{Name: CategoricalBranch, Columns: b.roles.Categorical, Pipeline: categorical})
	}

	ct := compose.NewColumnTransformer(branches...).WithLogger(b.logger)
	if err := ct.Validate(); err != nil {
		return nil, errors.NewTransformationError(StepBuildPreprocessor, err)
	}
	return ct, nil
}
