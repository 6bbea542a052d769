package typst

import (
	"context"

	"typst-relay/internal/relay"
)

type queryArgs struct {
	FilePath  string `json:"file_path"`
	OutputDir string `json:"output_dir"`
}

type compileArgs struct {
	InputFile  string   `json:"input_file"`
	OutputFile string   `json:"output_file"`
	Args       []string `json:"args"`
}

// Register adds query_typst and compile_typst backed by runner.
func Register(reg *relay.Registry, runner *Runner) {
	reg.Register("query_typst", relay.Typed(func(ctx context.Context, args queryArgs) (string, error) {
		return runner.Query(ctx, args.FilePath, args.OutputDir)
	}))

	reg.Register("compile_typst", relay.Typed(func(ctx context.Context, args compileArgs) (string, error) {
		return runner.Compile(ctx, args.InputFile, args.OutputFile, args.Args)
	}))
}
