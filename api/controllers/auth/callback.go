// Package auth handles the platform authentication callback that delivers
// per-store API credentials after app installation or token refresh.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/shipbridge-backend/api/responses"
	"github.com/angelmondragon/shipbridge-backend/api/validators"
	"github.com/angelmondragon/shipbridge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
)

// CredentialsWriter persists the store credentials issued by the platform.
type CredentialsWriter interface {
	Save(ctx context.Context, cred models.StoreCredential) error
}

// CallbackRequest is the authentication callback body.
type CallbackRequest struct {
	StoreID          int        `json:"store_id" validate:"required,min=1"`
	AuthenticationID string     `json:"authentication_id" validate:"required"`
	AccessToken      string     `json:"access_token" validate:"required"`
	ExpiresAt        *time.Time `json:"expires,omitempty"`
}

// Callback stores the delivered credentials. The platform retries the
// callback on non-2xx answers, so persistence failures must not answer 204.
func Callback(store CredentialsWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credentials store unavailable"))
			return
		}

		var body CallbackRequest
		if err := validators.DecodeLooseJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cred := models.StoreCredential{
			StoreID:          body.StoreID,
			AuthenticationID: body.AuthenticationID,
			AccessToken:      body.AccessToken,
			ExpiresAt:        body.ExpiresAt,
		}
		if err := store.Save(ctx, cred); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithStoreID(ctx, strconv.Itoa(body.StoreID)), "store credentials updated")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
