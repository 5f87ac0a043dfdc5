// Package commands holds the assetboard cobra command tree.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/assetboard/assetboard/internal/config"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	verbosity  int
}

// NewRootCmd builds the assetboard command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "assetboard",
		Short:         "IT asset inventory dashboard",
		Long:          "assetboard ingests a hardware inventory CSV export, scores every machine, and serves filterable stats as JSON.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Flags parsed; don't print usage for runtime errors.
			cmd.SilenceUsage = true
			setLogger(cmd.ErrOrStderr(), opts.verbosity)
			return config.LoadEnvFile(opts.envFile)
		},
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "issue DEBUG logs (-v)")

	if err := cmd.MarkPersistentFlagFilename("config", "yaml", "yml"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark config flag as filename: %v", err))
	}

	cmd.AddCommand(newServeCmd(opts), newInspectCmd(opts))
	return cmd
}

// loadConfig returns the config named by --config, or the defaults.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(o.configPath)
}

// setLogger installs a JSON slog handler at the level chosen by -v.
func setLogger(w io.Writer, verbosity int) {
	level := slog.LevelInfo
	if verbosity > 0 {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}
