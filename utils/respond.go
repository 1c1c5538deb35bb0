package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"therapii_server/models"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// WriteError maps an error onto the taxonomy and writes it as JSON.
func WriteError(w http.ResponseWriter, err error) {
	appErr := models.AsAppError(err)
	if appErr.Code == models.CodeUnknown || appErr.Code == models.CodeInternal {
		log.Printf("Request failed: %v", err)
	}
	WriteJSON(w, appErr.Code.HTTPStatus(), map[string]*models.AppError{"error": appErr})
}
