package httpapi

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError транслирует доменную ошибку в HTTP-статус: нарушения
// валидации — 400, отсутствие сущности — 404, отказ брокера — 502,
// всё остальное — 500 без деталей.
func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsPublishFailure(err):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
