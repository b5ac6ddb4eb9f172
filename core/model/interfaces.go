package model

// ParameterGetter is implemented by transformers that expose their
// configuration and learned parameters, for inspection and logging.
type ParameterGetter interface {
	// GetParams returns parameter name to value.
	GetParams() map[string]interface{}
}
