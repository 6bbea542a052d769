package app

import (
	"typst-relay/internal/configstore"
	"typst-relay/internal/files"
	"typst-relay/internal/relay"
	"typst-relay/internal/typst"
)

// Commands holds the leaf components behind the command registry.
type Commands struct {
	ConfigStore *configstore.Store
	Typst       *typst.Runner
}

// NewRegistry registers every command the front-end can invoke. The
// components are independent; each only sees what it needs.
func NewRegistry(cmds Commands, observers ...relay.Observer) *relay.Registry {
	reg := relay.NewRegistry(observers...)
	files.Register(reg)
	configstore.Register(reg, cmds.ConfigStore)
	typst.Register(reg, cmds.Typst)
	return reg
}
