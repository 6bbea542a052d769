package main

import (
	"io"

	"github.com/spf13/cobra"

	"typst-relay/internal/app"
	"typst-relay/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "typst-relay",
		Short: "Local command relay for a typst desktop editor",
		Long: `typst-relay is the native backend of a typst editor front-end.

It resolves paths, persists the editor's config.json, reads and writes
source files, and runs the typst compiler on behalf of the UI. All
settings come from the environment (PORT, TYPST_BIN, APP_CONFIG_DIR, ...).`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// serve is the default action
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	root.AddCommand(newServeCmd(), newInvokeCmd(), newTokenCmd())
	return root
}

// loadConfig reads the environment and initializes logging for any
// subcommand.
func loadConfig(logOut io.Writer) (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app.Setup(cfg, logOut)
	return cfg, nil
}
