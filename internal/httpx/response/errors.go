package response

import (
	"net/http"

	"typst-relay/internal/sentryx"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Error writes a JSON error body. Server faults are also reported.
func Error(w http.ResponseWriter, statusCode int, message string) {
	if statusCode >= http.StatusInternalServerError {
		sentryx.CaptureHTTPError(statusCode, message)
	}
	JSON(w, statusCode, errorBody{Error: message})
}

// CommandError writes the failure of a command: its message as shown to the
// user and the failure kind the front-end dispatches on.
func CommandError(w http.ResponseWriter, statusCode int, kind, message string) {
	if kind == "" {
		Error(w, statusCode, message)
		return
	}
	JSON(w, statusCode, errorBody{Error: message, Kind: kind})
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func TooManyConnections(w http.ResponseWriter) {
	Error(w, http.StatusServiceUnavailable, "Too many connections")
}
