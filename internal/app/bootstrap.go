package app

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"typst-relay/internal/config"
	"typst-relay/internal/configstore"
	"typst-relay/internal/events"
	"typst-relay/internal/logger"
	"typst-relay/internal/relay"
	"typst-relay/internal/sentryx"
	"typst-relay/internal/typst"
)

// ServiceName identifies this process in logs and error reports.
const ServiceName = "typst-relay"

// Version is set at build time with -ldflags "-X typst-relay/internal/app.Version=...".
var Version = "dev"

// ServerApp holds all runtime dependencies for the relay server.
type ServerApp struct {
	Config       *config.AppConfig
	AppConfigDir string
	Commands     Commands
	Registry     *relay.Registry
	Hub          *events.Hub
	RelayHandler *relay.Handler
	WSHandler    *events.WSHandler
	Logger       zerolog.Logger
}

// Setup initializes logging and error reporting from cfg. It is shared by
// every CLI entry point; logOut receives log lines.
func Setup(cfg *config.AppConfig, logOut io.Writer) {
	logger.Init(logger.Config{
		Output: logOut,
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
	})

	log := logger.WithComponent("MAIN")
	if err := sentryx.Init(sentryx.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnv,
		Release:     Version,
		Service:     ServiceName,
	}); err != nil {
		log.Warn().Err(err).Msg("Error reporting disabled")
		return
	}
	if sentryx.Enabled() {
		log.Info().Str("env", cfg.SentryEnv).Msg("Error reporting enabled")
	}
}

// NewCommands builds the command components from cfg.
func NewCommands(cfg *config.AppConfig) (Commands, error) {
	dir, err := cfg.ResolveAppConfigDir()
	if err != nil {
		return Commands{}, err
	}
	return Commands{
		ConfigStore: configstore.New(dir),
		Typst:       typst.NewRunner(cfg.TypstBinary),
	}, nil
}

// New builds a fully wired server application.
func New(cfg *config.AppConfig) (*ServerApp, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	log := logger.WithComponent("MAIN")

	cmds, err := NewCommands(cfg)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub(events.DefaultBuffer)
	registry := NewRegistry(cmds, hub)

	log.Info().Str("version", Version).Msg("typst-relay starting")
	log.Info().Str("dir", cmds.ConfigStore.Dir()).Msg("App config directory")
	log.Info().Str("binary", cmds.Typst.Binary()).Msg("Typst binary")
	if len(cfg.JWTSecret) == 0 {
		log.Warn().Msg("RELAY_JWT_SECRET is unset, API is unauthenticated")
	}

	return &ServerApp{
		Config:       cfg,
		AppConfigDir: cmds.ConfigStore.Dir(),
		Commands:     cmds,
		Registry:     registry,
		Hub:          hub,
		RelayHandler: relay.NewHandler(registry),
		WSHandler:    events.NewWSHandler(hub, cfg.WebSocketOriginPatterns()),
		Logger:       log,
	}, nil
}

// WatchConfig publishes a config.changed event whenever config.json is
// replaced on disk, by this process or another one. It returns when ctx is
// done.
func (a *ServerApp) WatchConfig(ctx context.Context) {
	err := a.Commands.ConfigStore.Watch(ctx, func() {
		a.Hub.Publish(events.Event{Type: events.TypeConfigChanged})
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Config watcher disabled")
	}
}

// Run initializes and starts the server until shutdown.
func Run(cfg *config.AppConfig) error {
	app, err := New(cfg)
	if err != nil {
		return err
	}
	return app.Run()
}
