// Command mleprep runs the feature preprocessing step.
package main

import (
	"os"

	"github.com/YuminosukeSato/mleprep/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
