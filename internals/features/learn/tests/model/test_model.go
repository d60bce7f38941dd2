package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TestModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug      string         `gorm:"size:120;not null;uniqueIndex:uq_tests_slug" json:"slug"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"`
	Tags      pq.StringArray `gorm:"type:text[]" json:"tags"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TestModel) TableName() string {
	return "tests"
}
