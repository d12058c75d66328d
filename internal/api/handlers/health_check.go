package handlers

import (
	"net/http"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
)

type HealthCheckResponse struct {
	Status string   `json:"status"`
	Models []string `json:"models"`
}

// HealthCheckHandler reports service liveness and the supported model set
func HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, HealthCheckResponse{
			Status: "API is running",
			Models: models.SupportedModels(),
		})
	}
}
