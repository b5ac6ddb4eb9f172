// Package transformation turns raw train/test CSV files into model-ready
// feature matrices and persists the fitted preprocessor for inference.
//
// Usage:
//
//	dt := transformation.NewDataTransformation(transformation.DefaultConfig(), nil)
//	train, test, artifact, err := dt.Run("artifact/train.csv", "artifact/test.csv")
//
// Every failure is returned as *errors.TransformationError naming the step
// that failed; the underlying typed error stays reachable with errors.As.
package transformation

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/compose"
	"github.com/YuminosukeSato/mleprep/dataset"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
)

// Step names reported in TransformationError.Step.
const (
	StepLoadTrain      = "load train data"
	StepLoadTest       = "load test data"
	StepSplitTrain     = "split train data"
	StepSplitTest      = "split test data"
	StepFitTransform   = "fit transform train features"
	StepTransformTest  = "transform test features"
	StepAppendTarget   = "append target"
	StepSavePreprocess = "save preprocessor"
)

// Result carries everything a run produced besides the matrices, for callers
// that record or report runs.
type Result struct {
	TrainRows    int
	TestRows     int
	FeatureNames []string
	ArtifactPath string
	Duration     time.Duration
	Preprocessor *compose.ColumnTransformer
}

// DataTransformation fits the preprocessor on training data, applies it to
// both splits and saves it.
type DataTransformation struct {
	config Config
	roles  ColumnRoles
	logger log.Logger

	last *Result
}

// NewDataTransformation creates an orchestrator with the default column
// roles. A nil logger uses the process-wide provider.
func NewDataTransformation(config Config, logger log.Logger) *DataTransformation {
	return NewDataTransformationWithRoles(config, DefaultColumnRoles(), logger)
}

// NewDataTransformationWithRoles creates an orchestrator for custom roles.
func NewDataTransformationWithRoles(config Config, roles ColumnRoles, logger log.Logger) *DataTransformation {
	if config.PreprocessorPath == "" {
		config.PreprocessorPath = DefaultPreprocessorPath
	}
	if logger == nil {
		logger = log.GetProvider().GetLoggerWithName("transformation")
	}
	return &DataTransformation{config: config, roles: roles, logger: logger}
}

// Config returns the orchestrator's configuration.
func (d *DataTransformation) Config() Config {
	return d.config
}

// LastResult returns details of the most recent successful Run, or nil.
func (d *DataTransformation) LastResult() *Result {
	return d.last
}

// Run loads both files, fits the preprocessor on the training inputs only,
// transforms both splits, appends the target as the last column and saves
// the fitted preprocessor. Nothing is returned unless every step succeeds.
// A partially written artifact may remain if saving fails.
func (d *DataTransformation) Run(trainPath, testPath string) (train, test *mat.Dense, artifactPath string, err error) {
	start := time.Now()

	trainSet, err := dataset.Load(trainPath, d.roles.Required())
	if err != nil {
		return nil, nil, "", d.fail(StepLoadTrain, err)
	}
	testSet, err := dataset.Load(testPath, d.roles.Required())
	if err != nil {
		return nil, nil, "", d.fail(StepLoadTest, err)
	}
	d.logger.Info("Read train and test data completed",
		log.PhaseKey, log.PhasePreprocessing,
		"train_rows", trainSet.Rows(),
		"test_rows", testSet.Rows(),
	)

	preprocessor, err := NewBuilder(d.roles, d.logger).Build()
	if err != nil {
		return nil, nil, "", d.fail(StepBuildPreprocessor, err)
	}
	d.logger.Info("Obtained preprocessing object")

	trainInputs, trainTarget, err := trainSet.Split(d.roles.Target)
	if err != nil {
		return nil, nil, "", d.fail(StepSplitTrain, err)
	}
	testInputs, testTarget, err := testSet.Split(d.roles.Target)
	if err != nil {
		return nil, nil, "", d.fail(StepSplitTest, err)
	}

	d.logger.Info("Applying preprocessing object on training and testing inputs")
	trainFeatures, err := preprocessor.FitTransform(trainInputs)
	if err == nil {
		err = errors.CheckMatrix("ColumnTransformer.FitTransform", trainFeatures)
	}
	if err != nil {
		return nil, nil, "", d.fail(StepFitTransform, err)
	}
	testFeatures, err := preprocessor.Transform(testInputs)
	if err == nil {
		err = errors.CheckMatrix("ColumnTransformer.Transform", testFeatures)
	}
	if err != nil {
		return nil, nil, "", d.fail(StepTransformTest, err)
	}

	train, err = AppendTarget(trainFeatures, trainTarget)
	if err != nil {
		return nil, nil, "", d.fail(StepAppendTarget, err)
	}
	test, err = AppendTarget(testFeatures, testTarget)
	if err != nil {
		return nil, nil, "", d.fail(StepAppendTarget, err)
	}

	artifactPath = d.config.PreprocessorPath
	if err := preprocessor.Save(artifactPath); err != nil {
		return nil, nil, "", d.fail(StepSavePreprocess, err)
	}
	d.logger.Info("Saved preprocessing object",
		log.PathKey, artifactPath,
		log.FeaturesKey, len(preprocessor.FeatureNames),
	)

	d.last = &Result{
		TrainRows:    trainSet.Rows(),
		TestRows:     testSet.Rows(),
		FeatureNames: preprocessor.FeatureNamesOut(),
		ArtifactPath: artifactPath,
		Duration:     time.Since(start),
		Preprocessor: preprocessor,
	}
	return train, test, artifactPath, nil
}

func (d *DataTransformation) fail(step string, err error) error {
	wrapped := errors.NewTransformationError(step, err)
	d.logger.Error("Data transformation failed", wrapped, log.StepKey, step)
	return wrapped
}

// AppendTarget returns features with target added as the last column.
func AppendTarget(features mat.Matrix, target []float64) (*mat.Dense, error) {
	r, _ := features.Dims()
	if len(target) != r {
		return nil, errors.NewDimensionError("AppendTarget", r, len(target), 0)
	}
	var out mat.Dense
	out.Augment(features, mat.NewDense(r, 1, append([]float64(nil), target...)))
	return &out, nil
}

// LoadPreprocessor reloads a preprocessor written by Run.
func LoadPreprocessor(path string) (*compose.ColumnTransformer, error) {
	ct, err := compose.Load(path)
	if err != nil {
		return nil, errors.NewTransformationError("load preprocessor", err)
	}
	return ct, nil
}
