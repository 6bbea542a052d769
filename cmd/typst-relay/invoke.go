package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"typst-relay/internal/app"
	"typst-relay/internal/relay"
)

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Run one relay command in-process and print its result",
		Example: `  typst-relay invoke get_parent_dir '{"path":"/docs/main.typ"}'
  typst-relay invoke compile_typst '{"input_file":"main.typ","output_file":"main.pdf","args":["theme=dark"]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cmds, err := app.NewCommands(cfg)
			if err != nil {
				return err
			}
			reg := app.NewRegistry(cmds)

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
				if !json.Valid(raw) {
					return fmt.Errorf("arguments are not valid JSON")
				}
			}

			result, err := reg.Invoke(context.Background(), args[0], raw)
			if err != nil {
				if kind := relay.KindOf(err); kind != "" {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
