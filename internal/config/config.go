package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultAppIdentifier names the per-application config directory.
const DefaultAppIdentifier = "typst-relay"

// AppConfig holds the resolved process configuration
type AppConfig struct {
	Host           string   `env:"HOST" envDefault:"127.0.0.1"`
	Port           int      `env:"PORT" envDefault:"7878"`
	AppIdentifier  string   `env:"APP_IDENTIFIER" envDefault:"typst-relay"`
	AppConfigDir   string   `env:"APP_CONFIG_DIR"`
	TypstBinary    string   `env:"TYPST_BIN" envDefault:"typst"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"tauri://localhost,http://tauri.localhost,http://localhost:*,http://127.0.0.1:*"`
	JWTSecret      string   `env:"RELAY_JWT_SECRET"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"console"`
	SentryDSN      string   `env:"SENTRY_DSN"`
	SentryEnv      string   `env:"SENTRY_ENV" envDefault:"local"`
}

// Common configuration errors
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoConfigDir   = errors.New("cannot determine app config directory")
)

// ValidationError contains details about a configuration validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d config validation errors: %s (and %d more)", len(e), e[0].Error(), len(e)-1)
}

// Validate checks the configuration for errors
func (c *AppConfig) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ValidationError{Field: "port", Message: fmt.Sprintf("invalid port %d, must be 1-65535", c.Port)})
	}

	if strings.TrimSpace(c.TypstBinary) == "" {
		errs = append(errs, ValidationError{Field: "typstBinary", Message: "binary is required"})
	}

	if c.AppConfigDir == "" && strings.TrimSpace(c.AppIdentifier) == "" {
		errs = append(errs, ValidationError{Field: "appIdentifier", Message: "identifier is required when APP_CONFIG_DIR is unset"})
	}
	if strings.ContainsAny(c.AppIdentifier, `/\`) {
		errs = append(errs, ValidationError{Field: "appIdentifier", Message: "identifier must not contain path separators"})
	}

	if c.AppConfigDir != "" {
		if info, err := os.Stat(c.AppConfigDir); err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, ValidationError{Field: "appConfigDir", Message: fmt.Sprintf("cannot access: %v", err)})
			}
			// Not existing is OK - write_config creates it
		} else if !info.IsDir() {
			errs = append(errs, ValidationError{Field: "appConfigDir", Message: "path exists but is not a directory"})
		}
	}

	for i, origin := range c.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if scheme, host, ok := strings.Cut(origin, "://"); !ok || scheme == "" || host == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("allowedOrigins[%d]", i), Message: fmt.Sprintf("invalid origin %q", origin)})
		}
	}

	return errs
}

// Load reads configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	cfg, err := env.ParseAs[AppConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, errs.Error())
	}
	return &cfg, nil
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ResolveAppConfigDir returns APP_CONFIG_DIR, or the identifier directory
// inside the user's platform config dir.
func (c *AppConfig) ResolveAppConfigDir() (string, error) {
	if c.AppConfigDir != "" {
		return filepath.Clean(c.AppConfigDir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoConfigDir, err)
	}
	return filepath.Join(base, c.AppIdentifier), nil
}

// WebSocketOriginPatterns converts allowed origins to the host patterns the
// websocket handshake checks.
func (c *AppConfig) WebSocketOriginPatterns() []string {
	patterns := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
