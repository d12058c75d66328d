package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
)

type RequestLogRepository interface {
	Create(log *models.RequestLog) error
	GetSubscriberLogs(subscriberID string, from, to time.Time) ([]models.RequestLog, error)
}

type requestLogRepository struct {
	db *gorm.DB
}

func NewRequestLogRepository(db *gorm.DB) RequestLogRepository {
	return &requestLogRepository{db: db}
}

func (r *requestLogRepository) Create(log *models.RequestLog) error {
	return r.db.Create(log).Error
}

func (r *requestLogRepository) GetSubscriberLogs(subscriberID string, from, to time.Time) ([]models.RequestLog, error) {
	var logs []models.RequestLog
	err := r.db.Where("subscriber_id = ? AND timestamp BETWEEN ? AND ?", subscriberID, from, to).
		Order("timestamp desc").
		Find(&logs).Error
	return logs, err
}
