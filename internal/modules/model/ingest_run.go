package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IngestRun is one audit row per batch ingestion call. Every run is kept,
// including runs where every item failed.
type IngestRun struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Keyword   string             `gorm:"not null" json:"keyword"`
	Page      int                `gorm:"not null" json:"page"`
	Category  *string            `json:"category"`
	Inserted  int                `gorm:"not null" json:"inserted"`
	Failed    int                `gorm:"not null" json:"failed"`
	Meta      datatypes.JSONMap  `gorm:"type:jsonb" json:"meta"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (IngestRun) TableName() string { return "ingest_runs" }
