package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON serializes data to JSON and writes it with the given status code.
//
// It sets "Content-Type: application/json". If marshaling fails it responds
// with 500 Internal Server Error and returns a wrapped error.
//
//	WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError writes an [ErrorResponse] with the given status code.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	_, _ = WriteJSON(w, ErrorResponse{Success: false, Message: message}, statusCode)
}
