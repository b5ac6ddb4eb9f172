// Package pipeline implements a scikit-learn compatible Pipeline for chaining
// matrix transformers. Every step is fitted on the output of the previous one,
// so a fitted Pipeline applies exactly the same sequence at Transform time.
package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/core/model"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
)

// Step represents a single named step in the pipeline.
type Step struct {
	Name        string            // Name of this step (for identification)
	Transformer model.Transformer // Transformer fitted and applied in order
}

// Pipeline chains multiple transformers.
//
// Steps and State are exported so that a fitted pipeline round-trips
// through gob; every Transformer type must be registered with gob.
type Pipeline struct {
	Steps []Step
	State *model.StateManager

	logger log.Logger
}

// New creates a new Pipeline with the given steps.
// This is equivalent to sklearn.pipeline.Pipeline(steps).
func New(steps ...Step) *Pipeline {
	return &Pipeline{
		Steps: steps,
		State: model.NewStateManager(),
	}
}

// Make is a convenience function similar to sklearn.pipeline.make_pipeline.
// It names the steps "step1", "step2", ...
func Make(transformers ...model.Transformer) *Pipeline {
	steps := make([]Step, len(transformers))
	for i, t := range transformers {
		steps[i] = Step{Name: fmt.Sprintf("step%d", i+1), Transformer: t}
	}
	return New(steps...)
}

// WithLogger sets the logger used for per-step debug records.
func (p *Pipeline) WithLogger(logger log.Logger) *Pipeline {
	p.logger = logger
	return p
}

func (p *Pipeline) getLogger() log.Logger {
	if p.logger == nil {
		p.logger = log.GetProvider().GetLoggerWithName("Pipeline")
	}
	return p.logger
}

// IsFitted reports whether Fit or FitTransform has completed.
func (p *Pipeline) IsFitted() bool {
	return p.State != nil && p.State.IsFitted()
}

// Fit fits every step in order on the output of the previous step.
func (p *Pipeline) Fit(X mat.Matrix) error {
	_, err := p.FitTransform(X)
	return err
}

// FitTransform fits the pipeline and returns the transformed data.
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.State == nil {
		p.State = model.NewStateManager()
	}

	Xt := X
	var err error
	for _, step := range p.Steps {
		Xt, err = step.Transformer.FitTransform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fit step '%s'", step.Name)
		}
		r, c := Xt.Dims()
		p.getLogger().Debug("Pipeline step fitted",
			"step", step.Name,
			log.OperationKey, log.OperationFitTransform,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	r, c := X.Dims()
	p.State.SetDimensions(c, r)
	p.State.SetFitted()
	return Xt, nil
}

// Transform applies every fitted step in order.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	Xt := X
	var err error
	for _, step := range p.Steps {
		Xt, err = step.Transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// FeatureNamesOut threads input names through every step that can rename
// its columns. Steps that cannot are assumed to keep the names unchanged.
func (p *Pipeline) FeatureNamesOut(input []string) []string {
	names := append([]string(nil), input...)
	for _, step := range p.Steps {
		if namer, ok := step.Transformer.(model.FeatureNamer); ok {
			names = namer.FeatureNamesOut(names)
		}
	}
	return names
}

// NamedSteps returns the steps keyed by name.
func (p *Pipeline) NamedSteps() map[string]model.Transformer {
	named := make(map[string]model.Transformer, len(p.Steps))
	for _, step := range p.Steps {
		named[step.Name] = step.Transformer
	}
	return named
}

// GetParams returns the parameters of every step, prefixed "<step>__".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Name
		getter, ok := step.Transformer.(model.ParameterGetter)
		if !ok {
			continue
		}
		for k, v := range getter.GetParams() {
			params[step.Name+"__"+k] = v
		}
	}
	params["steps"] = names
	return params
}

func (p *Pipeline) validate() error {
	if len(p.Steps) == 0 {
		return errors.NewValidationError("steps", "pipeline must have at least one step", 0)
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if step.Transformer == nil {
			return errors.NewValidationError("steps", "step has no transformer", step.Name)
		}
		if seen[step.Name] {
			return errors.NewValidationError("steps", "step names must be unique", step.Name)
		}
		seen[step.Name] = true
	}
	return nil
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(steps=%d)", len(p.Steps))
}
