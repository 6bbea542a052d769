package files

import (
	"context"

	"github.com/rs/zerolog"

	"typst-relay/internal/relay"
)

type parentDirArgs struct {
	Path string `json:"path"`
}

type readFileArgs struct {
	Path string `json:"path"`
}

type writeFileArgs struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// Register adds get_parent_dir, read_file and write_file.
func Register(reg *relay.Registry) {
	reg.Register("get_parent_dir", relay.Typed(func(_ context.Context, args parentDirArgs) (string, error) {
		return ParentDir(args.Path)
	}))

	reg.Register("read_file", relay.Typed(func(_ context.Context, args readFileArgs) (string, error) {
		return ReadFile(args.Path)
	}))

	reg.Register("write_file", relay.Typed(func(ctx context.Context, args writeFileArgs) (string, error) {
		zerolog.Ctx(ctx).Debug().
			Str("path", args.Path).
			Int("bytes", len(args.Contents)).
			Msg("writing file")
		return WriteFile(args.Path, args.Contents)
	}))
}
