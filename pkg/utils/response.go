package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"rental-backend/internal/models"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]string{"error": message})
}

// ErrorFromDomain maps sentinel errors from the service layer to HTTP
// status codes so handlers do not repeat the switch
func ErrorFromDomain(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrGateway):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
