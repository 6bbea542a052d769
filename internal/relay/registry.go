package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"typst-relay/internal/logger"
)

// HandlerFunc runs one command against its raw JSON argument object.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Observer is notified around every invocation.
type Observer interface {
	CommandStarted(invocationID, command string)
	CommandFinished(invocationID, command string, took time.Duration, err error)
}

// Registry maps command names to handlers.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[string]HandlerFunc
	observers []Observer
	log       zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(observers ...Observer) *Registry {
	return &Registry{
		handlers:  make(map[string]HandlerFunc),
		observers: observers,
		log:       logger.WithComponent("RELAY"),
	}
}

// Register adds a command. Registering the same name twice panics, since
// it can only come from a wiring mistake.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("relay: command %q registered twice", name))
	}
	r.handlers[name] = fn
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a command synchronously and returns its result.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Kind: KindUnknownCommand, Message: fmt.Sprintf("unknown command %q", name)}
	}

	invocationID := uuid.NewString()
	for _, o := range r.observers {
		o.CommandStarted(invocationID, name)
	}

	start := time.Now()
	result, err := fn(ctx, args)
	took := time.Since(start)

	for _, o := range r.observers {
		o.CommandFinished(invocationID, name, took, err)
	}

	evt := r.log.Debug()
	if err != nil {
		evt = r.log.Warn().Err(err).Str("kind", string(KindOf(err)))
	}
	evt.Str("command", name).
		Str("invocation", invocationID).
		Dur("took", took).
		Msg("command finished")

	return result, err
}

// DecodeArgs strictly decodes a command argument object. Empty or null
// input leaves v at its zero value.
func DecodeArgs(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Errorf(KindArgument, "invalid arguments: %v", err)
	}
	return nil
}

// Typed adapts a handler taking a decoded argument struct.
func Typed[A any, R any](fn func(ctx context.Context, args A) (R, error)) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := DecodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}
