// Package log defines standard attribute keys for preprocessing operations.
//
// The keys follow a hierarchical naming convention (e.g. "ml.operation",
// "data.samples") so that records from different components can be filtered
// on the same fields.
package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of transformer.
	// Examples: "ColumnTransformer", "StandardScaler", "OneHotEncoder"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "fit_transform", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "transformation", "compose", "registry"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	// Examples: "training", "testing", "preprocessing"
	PhaseKey = "ml.phase"

	// StepKey names the orchestration step a record belongs to.
	StepKey = "ml.step"

	// RunIDKey carries the identifier of a recorded run.
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ColumnsKey lists column names routed to a branch.
	ColumnsKey = "data.columns"

	// PathKey is a filesystem path read or written by the operation.
	PathKey = "data.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "TransformationError", "UnknownCategoryError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the zerolog backend for errors passed first.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute value constants for common operations.
const (
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationSave         = "save"
	OperationLoad         = "load"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"
)
