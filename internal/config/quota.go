package config

import (
	"github.com/WisemanUCE/omegaai-backend/internal/models"
)

// QuotaConfig holds the per-model monthly call ceilings. The pro tier is
// priced per call upstream, so its ceiling is far below the standard one.
type QuotaConfig struct {
	Limits map[string]int
}

func NewQuotaConfig() *QuotaConfig {
	return &QuotaConfig{
		Limits: map[string]int{
			models.StandardModel: 5000,
			models.ProModel:      800,
		},
	}
}

// Limit returns the monthly ceiling for model, or 0 for unknown models
// (which the validator rejects long before quota is consulted).
func (c *QuotaConfig) Limit(model string) int {
	return c.Limits[model]
}
