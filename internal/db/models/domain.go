package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Domain represents a tenant's branded hostname
type Domain struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Hostname    string    `gorm:"uniqueIndex;not null" json:"hostname"`
	DisplayName string    `gorm:"not null" json:"displayName"`

	// Branding
	LogoURL      string `json:"logoUrl,omitempty"`
	AgentPhoto   string `json:"agentPhoto,omitempty"` // rendered as the right-side logo
	PrimaryColor string `gorm:"default:'#0f172a'" json:"primaryColor"`
	AccentColor  string `gorm:"default:'#2563eb'" json:"accentColor"`

	// Analytics
	GA4ID       string `json:"ga4Id,omitempty"`
	MetaPixelID string `json:"metaPixelId,omitempty"`

	// Lead notification targets
	NotifyEmail string `json:"notifyEmail,omitempty"`
	NotifySMS   string `json:"notifySms,omitempty"`

	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	Pages []LandingPage `gorm:"foreignKey:DomainID" json:"-"`
}

// BeforeCreate hook to set UUID if not provided
func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (Domain) TableName() string {
	return "domains"
}
