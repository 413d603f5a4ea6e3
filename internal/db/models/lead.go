package models

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeadStatus enumerates lead followup states
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

var stepKeyRegex = regexp.MustCompile(`^step\d+$`)

// Lead is an immutable capture record for one form submission
type Lead struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID uuid.UUID `gorm:"type:uuid;not null;index" json:"domainId"`
	PageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"pageId"`

	Type     string         `gorm:"not null" json:"type"`
	FormData datatypes.JSON `gorm:"type:json" json:"formData"`

	UtmSource   string `json:"utmSource,omitempty"`
	UtmMedium   string `json:"utmMedium,omitempty"`
	UtmCampaign string `json:"utmCampaign,omitempty"`

	Status    LeadStatus `gorm:"default:'new'" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`

	// Relationships
	Domain Domain      `gorm:"foreignKey:DomainID" json:"-"`
	Page   LandingPage `gorm:"foreignKey:PageID" json:"-"`
}

// BeforeCreate sets UUID if not already set
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (Lead) TableName() string {
	return "leads"
}

// FormDataMap decodes FormData into a generic map. Returns an empty map when
// the column is empty or malformed.
func (l *Lead) FormDataMap() map[string]interface{} {
	data := map[string]interface{}{}
	if len(l.FormData) > 0 {
		_ = json.Unmarshal(l.FormData, &data)
	}
	return data
}

// StepCount counts stepN keys in the form data. A non-zero count marks the
// lead as produced by a multistep funnel.
func (l *Lead) StepCount() int {
	count := 0
	for key := range l.FormDataMap() {
		if stepKeyRegex.MatchString(key) {
			count++
		}
	}
	return count
}

// IsMultistep reports whether the lead was produced by a multistep funnel
func (l *Lead) IsMultistep() bool {
	return l.StepCount() > 0
}
