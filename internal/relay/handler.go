package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"typst-relay/internal/httpx/response"
)

// MaxArgsSize bounds the argument object of one invocation. File contents
// travel in it, so it is generous.
const MaxArgsSize = 64 << 20

// Handler exposes a registry over HTTP.
type Handler struct {
	registry *Registry
}

// NewHandler creates a new relay handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Invoke handles POST /invoke/{command}.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")
	if name == "" {
		response.BadRequest(w, "No command specified")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxArgsSize))
	if err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		response.BadRequest(w, "Invalid request")
		return
	}

	// Commands run to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.registry.Invoke(ctx, name, body)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	response.Result(w, result)
}

// List handles GET /commands.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{"commands": h.registry.Names()})
}

func writeCommandError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	response.CommandError(w, StatusForKind(kind), string(kind), err.Error())
}

// StatusForKind maps a failure kind to an HTTP status.
func StatusForKind(kind Kind) int {
	switch kind {
	case KindUnknownCommand:
		return http.StatusNotFound
	case KindArgument:
		return http.StatusBadRequest
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
