package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	StatusSuccess RequestStatus = "SUCCESS"
	StatusError   RequestStatus = "ERROR"
)

// RequestLog is an audit record of one handled request. Subscriber and model
// are filled in only when the pipeline got far enough to identify them.
type RequestLog struct {
	ID           uint   `gorm:"primarykey"`
	SubscriberID string `gorm:"index"`
	Endpoint     string `gorm:"index"`
	Method       string
	Model        string
	Status       RequestStatus
	StatusCode   int
	LatencyMs    int64
	Timestamp    time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}
