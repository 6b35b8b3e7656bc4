package appconfig

import (
	"context"
	"errors"

	"github.com/angelmondragon/shipbridge-backend/pkg/db/models"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles per-store configuration persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to app config operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads the configuration row for a store. A missing row is
// returned as (nil, nil) because a store with no saved settings is a
// normal state, not a fault.
func (r *Repository) Find(ctx context.Context, storeID int) (*models.AppConfig, error) {
	var record models.AppConfig
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the document for a store, inserting the row on first use.
func (r *Repository) Upsert(ctx context.Context, storeID int, doc types.JSONDocument) (*models.AppConfig, error) {
	record := models.AppConfig{StoreID: storeID, Data: doc}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
