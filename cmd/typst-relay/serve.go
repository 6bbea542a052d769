package main

import (
	"github.com/spf13/cobra"

	"typst-relay/internal/app"
	"typst-relay/internal/sentryx"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the command relay on the loopback interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer sentryx.RecoverPanicAndCapture()
	return app.Run(cfg)
}
