// Package model provides the shared transformer contract, fitted-state
// bookkeeping and gob persistence used by every preprocessing stage.
package model

import (
	"sync"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// StateManager manages the fitted state of a transformer in a thread-safe manner.
// Its exported fields are the ones persisted by gob.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the transformer has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the transformer as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions sets the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted returns a NotFittedError naming modelName and method if the
// transformer has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
