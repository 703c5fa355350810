// Package persistence provides GORM-backed implementations of the domain
// store contracts.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores a vector as a JSON array so the same column type works
// on both SQLite and PostgreSQL.
type Float64Slice []float64

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan vector: unsupported type %T", value)
	}
	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// MetadataMap stores informational key/value pairs as a JSON object.
type MetadataMap map[string]string

// Scan implements sql.Scanner.
func (m *MetadataMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", value)
	}
	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer.
func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// EmbeddingModel is the database model for embedding records. The composite
// unique index enforces at most one record per (entity, model).
type EmbeddingModel struct {
	ID         int64        `gorm:"primaryKey;autoIncrement"`
	EntityKind string       `gorm:"not null;index;uniqueIndex:idx_entity_model"`
	EntityID   int64        `gorm:"not null;index;uniqueIndex:idx_entity_model"`
	Vector     Float64Slice `gorm:"type:text;not null"`
	Dimensions int          `gorm:"not null"`
	Model      string       `gorm:"not null;index;uniqueIndex:idx_entity_model"`
	Provider   string       `gorm:"not null;index"`
	Metadata   MetadataMap  `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;index"`
	UpdatedAt  time.Time    `gorm:"not null"`
}

// TableName returns the table name for EmbeddingModel.
func (EmbeddingModel) TableName() string { return "embeddings" }

// ItemModel is the database model for catalog items.
type ItemModel struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Kind        string     `gorm:"not null;index"`
	Title       string     `gorm:"not null;index"`
	Description string
	Thumbnail   string
	OwnerID     int64      `gorm:"not null;index"`
	AlbumID     int64      `gorm:"index"`
	Tags        []TagModel `gorm:"many2many:item_tags;"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for ItemModel.
func (ItemModel) TableName() string { return "items" }

// TagModel is the database model for tags.
type TagModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"not null;uniqueIndex"`
}

// TableName returns the table name for TagModel.
func (TagModel) TableName() string { return "tags" }
