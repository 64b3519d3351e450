package handlers

import (
	"encoding/json"
	"net/http"
)

// response is the envelope every endpoint returns.
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// respond writes a success envelope with the given payload.
func respond(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, response{Success: true, Data: data, Message: message})
}

// respondError writes a failure envelope; data is always absent.
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// NotFound replies to unmatched routes with the standard envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "route not found")
}
