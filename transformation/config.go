package transformation

import "path/filepath"

// DefaultPreprocessorPath is where the fitted transformer is written unless
// configured otherwise.
var DefaultPreprocessorPath = filepath.Join("artifact", "preprocessor.gob")

// Config holds the output location of the fitted transformer.
type Config struct {
	PreprocessorPath string
}

// DefaultConfig returns a Config writing to DefaultPreprocessorPath.
func DefaultConfig() Config {
	return Config{PreprocessorPath: DefaultPreprocessorPath}
}
