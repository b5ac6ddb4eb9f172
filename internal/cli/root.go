// Package cli provides the mleprep command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mleprep/internal/config"
	"github.com/YuminosukeSato/mleprep/pkg/log"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "mleprep",
		Short: "Fit and apply the feature preprocessing for the student performance data",
		Long: `mleprep reads the train and test CSV files, fits the column transformer on
the training inputs only, transforms both splits and saves the fitted
preprocessor for reuse at inference time.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log.SetProvider(newProvider(cmd.ErrOrStderr(), cfg))
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json|console)")

	rootCmd.AddCommand(newTransformCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newRunsCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config stored by PersistentPreRunE.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	d := config.Defaults()
	return &d
}

func newProvider(w io.Writer, cfg *config.Config) log.LoggerProvider {
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return log.NewZerologProviderWithWriter(w, cfg.Level())
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mleprep %s (commit %s)\n", Version, GitCommit)
			return err
		},
	}
}
