package services

import (
	"time"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
	"github.com/WisemanUCE/omegaai-backend/internal/repository"
)

type RequestLogService interface {
	LogRequest(subscriberID, endpoint, method, model string, statusCode int, latency time.Duration) error
	GetSubscriberLogs(subscriberID string, from, to time.Time) ([]models.RequestLog, error)
}

type requestLogService struct {
	repo repository.RequestLogRepository
}

func NewRequestLogService(repo repository.RequestLogRepository) RequestLogService {
	return &requestLogService{repo: repo}
}

func (s *requestLogService) LogRequest(subscriberID, endpoint, method, model string, statusCode int, latency time.Duration) error {
	status := models.StatusSuccess
	if statusCode >= 400 {
		status = models.StatusError
	}

	log := &models.RequestLog{
		SubscriberID: subscriberID,
		Endpoint:     endpoint,
		Method:       method,
		Model:        model,
		Status:       status,
		StatusCode:   statusCode,
		LatencyMs:    latency.Milliseconds(),
		Timestamp:    time.Now(),
	}
	return s.repo.Create(log)
}

func (s *requestLogService) GetSubscriberLogs(subscriberID string, from, to time.Time) ([]models.RequestLog, error) {
	return s.repo.GetSubscriberLogs(subscriberID, from, to)
}
