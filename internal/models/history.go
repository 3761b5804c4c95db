package models

import (
	"time"
)

// GenerationHistoryLimit caps how many generation records are retained
const GenerationHistoryLimit = 100

// GenerationRecord is an immutable record of one past card generation.
// Only non-manual generations are recorded.
type GenerationRecord struct {
	ID          string              `gorm:"primaryKey" json:"id"`
	ProductID   string              `gorm:"index" json:"product_id"`
	ProductName string              `json:"product_name"`
	Mode        GenerationMode      `json:"mode"`
	Template    Template            `json:"template"`
	Cards       map[Encoding]string `gorm:"type:json;serializer:json" json:"cards"`
	Alternates  map[Encoding]string `gorm:"type:json;serializer:json" json:"alternates,omitempty"`
	ScheduleID  string              `gorm:"index" json:"schedule_id,omitempty"`
	CreatedAt   time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
}

// ExecutionRecord summarizes one schedule execution
type ExecutionRecord struct {
	ID           string        `gorm:"primaryKey" json:"id"`
	ScheduleID   string        `gorm:"index;not null" json:"schedule_id"`
	StartedAt    time.Time     `gorm:"index" json:"started_at"`
	Duration     time.Duration `json:"duration"`
	ProductCount int           `json:"product_count"`
	SuccessCount int           `json:"success_count"`
	Errors       StringSlice   `gorm:"type:json" json:"errors,omitempty"`
	Success      bool          `json:"success"`
}
