package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// ContentIdentity records the normalized name and slug claimed by a CMS
// document. The unique indexes make a claim race-free across processes.
type ContentIdentity struct {
	ID         string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	DocType    string    `gorm:"column:doc_type;type:varchar(64);not null;uniqueIndex:idx_identity_name,priority:1;uniqueIndex:idx_identity_slug,priority:1"`
	NameKey    string    `gorm:"column:name_key;type:varchar(255);not null;uniqueIndex:idx_identity_name,priority:2"`
	SlugKey    string    `gorm:"column:slug_key;type:varchar(255);not null;uniqueIndex:idx_identity_slug,priority:2"`
	DocumentID string    `gorm:"column:document_id;type:varchar(255);not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ContentIdentity) TableName() string {
	return "content_identities"
}

func (c *ContentIdentity) BeforeCreate(_ *gormlib.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
