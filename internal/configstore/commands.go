package configstore

import (
	"context"
	"encoding/json"

	"typst-relay/internal/relay"
)

type writeConfigArgs struct {
	Config json.RawMessage `json:"config"`
}

// Register adds read_config and write_config backed by store.
func Register(reg *relay.Registry, store *Store) {
	reg.Register("read_config", relay.Typed(func(_ context.Context, _ struct{}) (json.RawMessage, error) {
		return store.Read()
	}))

	reg.Register("write_config", relay.Typed(func(_ context.Context, args writeConfigArgs) (any, error) {
		if args.Config == nil {
			return nil, relay.Errorf(relay.KindArgument, "missing required argument %q", "config")
		}
		return nil, store.Write(args.Config)
	}))
}
