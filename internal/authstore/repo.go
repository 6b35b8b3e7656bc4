package authstore

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/shipbridge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/platform"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the Store API credentials issued to the app.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to credential operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save records the credentials issued during the authentication callback,
// replacing any previous pair for the store.
func (r *Repository) Save(ctx context.Context, cred models.StoreCredential) error {
	if cred.StoreID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if strings.TrimSpace(cred.AuthenticationID) == "" || strings.TrimSpace(cred.AccessToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "authentication id and access token are required")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"authentication_id", "access_token", "expires_at", "updated_at"}),
		}).
		Create(&cred).Error
}

// Credentials returns the stored pair for a store. Stores that never
// completed the authentication callback map to a not-found error.
func (r *Repository) Credentials(ctx context.Context, storeID int) (platform.Credentials, error) {
	var record models.StoreCredential
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platform.Credentials{}, pkgerrors.New(pkgerrors.CodeNotFound, "store is not authenticated")
	}
	if err != nil {
		return platform.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store credentials")
	}
	return platform.Credentials{
		AuthenticationID: record.AuthenticationID,
		AccessToken:      record.AccessToken,
	}, nil
}
