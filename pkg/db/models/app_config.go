package models

import (
	"time"

	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// AppConfig persists one merchant's app configuration document, keyed by the
// platform store id. The document itself stays schemaless JSON: the
// configuration vocabulary is owned by the admin settings schema, not by the
// database.
type AppConfig struct {
	StoreID   int                `gorm:"column:store_id;primaryKey"`
	Data      types.JSONDocument `gorm:"column:data;type:jsonb"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by the config repository.
func (AppConfig) TableName() string { return "app_configs" }
