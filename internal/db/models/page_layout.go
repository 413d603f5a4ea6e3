package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageLayout is an optional 1:1 companion to a page, holding the saved
// 4-region grid layout override. Absence means "use default responsive layout".
type PageLayout struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"pageId"`

	LayoutData datatypes.JSON `gorm:"type:json" json:"layoutData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	Page LandingPage `gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate sets UUID if not already set
func (l *PageLayout) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (PageLayout) TableName() string {
	return "page_layouts"
}
