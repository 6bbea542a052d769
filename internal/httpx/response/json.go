package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of a successful /invoke response.
type Envelope struct {
	Result any `json:"result"`
}

// JSON writes a JSON response payload with status code.
func JSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// Result writes the success envelope of a command. A nil result is encoded
// as "result": null.
func Result(w http.ResponseWriter, result any) {
	JSON(w, http.StatusOK, Envelope{Result: result})
}
