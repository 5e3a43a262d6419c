package audit

import (
	"time"

	"github.com/google/uuid"
)

// Record is one indexed ledger event. Rows are only ever appended.
type Record struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Seq        int64             `gorm:"uniqueIndex;not null"`
	Type       string            `gorm:"index;not null"`
	Subject    string            `gorm:"index"`
	Attributes map[string]string `gorm:"type:text;serializer:json"`
	RecordedAt time.Time         `gorm:"not null"`
}

// TableName pins the table name independent of gorm's naming strategy.
func (Record) TableName() string { return "cauldron_events" }
