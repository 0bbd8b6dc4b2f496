package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteError writes the standard JSON error body.
func WriteError(w http.ResponseWriter, status int, errCode, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errCode,
		"message":    message,
		"request_id": requestID,
	})
}
