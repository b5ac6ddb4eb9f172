// Package mleprep fits and applies the feature preprocessing step of the
// student performance pipeline: it turns raw train and test CSV files into
// numeric matrices ready for model training, and saves the fitted
// preprocessor so inference applies exactly the same transformation.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/mleprep/transformation"
//	)
//
//	func main() {
//	    dt := transformation.NewDataTransformation(transformation.DefaultConfig(), nil)
//	    train, test, artifact, err := dt.Run("artifact/train.csv", "artifact/test.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    r, c := train.Dims()
//	    fmt.Println(r, c, artifact)
//	    _ = test
//	}
//
// The saved preprocessor is reloaded with transformation.LoadPreprocessor and
// applied to new rows with its Transform method.
//
// # Packages
//
//   - transformation: the builder and the orchestrator (DataTransformation)
//   - compose: ColumnTransformer routing column subsets to branch pipelines
//   - pipeline: ordered chains of matrix transformers
//   - preprocessing: SimpleImputer, CategoricalImputer, StandardScaler, OneHotEncoder
//   - dataset: CSV loading and column extraction on top of gota data frames
//   - core/model: the Transformer contract, fitted state and gob persistence
//   - core/parallel: index-range parallelism
//   - pkg/errors, pkg/log: error types and structured logging
//
// The mleprep command (cmd/mleprep) wraps the orchestrator and adds a run
// registry, Prometheus textfile metrics and per-feature histograms.
//
// # Error Handling
//
// Every failure of DataTransformation.Run is a *errors.TransformationError
// naming the failing step; the cause stays reachable through errors.As:
//
//	var unknown *errors.UnknownCategoryError
//	if errors.As(err, &unknown) {
//	    fmt.Println(unknown.Column, unknown.Values)
//	}
package mleprep
