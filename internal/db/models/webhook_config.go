package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookConfig is an admin-managed fan-out target for new leads
type WebhookConfig struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"not null" json:"name"`
	URL    string    `gorm:"not null" json:"url"`
	Method string    `gorm:"default:'POST'" json:"method"`

	// Static headers attached to every dispatch
	Headers datatypes.JSON `gorm:"type:json" json:"headers,omitempty"`

	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID if not already set
func (w *WebhookConfig) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (WebhookConfig) TableName() string {
	return "webhook_configs"
}

// HeaderMap decodes the static headers. Returns an empty map when the column
// is empty or malformed.
func (w *WebhookConfig) HeaderMap() map[string]string {
	headers := map[string]string{}
	if len(w.Headers) > 0 {
		_ = json.Unmarshal(w.Headers, &headers)
	}
	return headers
}
