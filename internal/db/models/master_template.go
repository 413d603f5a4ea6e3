package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageType enumerates the two landing page archetypes
type PageType string

const (
	PageTypeBuyer  PageType = "buyer"
	PageTypeSeller PageType = "seller"
)

// IsValid reports whether the page type is one of the known archetypes
func (t PageType) IsValid() bool {
	return t == PageTypeBuyer || t == PageTypeSeller
}

// MasterTemplate holds the canonical content seed for one page type.
// The seeding logic expects exactly one template per type.
type MasterTemplate struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Type PageType  `gorm:"uniqueIndex;not null" json:"type"`
	Name string    `gorm:"not null" json:"name"`

	Sections   datatypes.JSON `gorm:"type:json" json:"sections"`
	FormSchema datatypes.JSON `gorm:"type:json" json:"formSchema,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID if not already set
func (m *MasterTemplate) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (MasterTemplate) TableName() string {
	return "master_templates"
}
