// Package modules exposes the platform module endpoints. Module requests
// carry the merchant's app configuration inline, so no store lookup happens
// on this path.
package modules

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/shipbridge-backend/api/validators"
	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// QuoteService calculates shipping options for a cart.
type QuoteService interface {
	Calculate(ctx context.Context, params quotes.Params, data appconfig.AppData) (*quotes.CalculateResponse, error)
}

// Application is the app installment snapshot the platform includes on
// every module request.
type Application struct {
	Data       types.JSONDocument `json:"data,omitempty"`
	HiddenData types.JSONDocument `json:"hidden_data,omitempty"`
}

// CalculateShippingRequest is the module request body.
type CalculateShippingRequest struct {
	StoreID     int           `json:"store_id,omitempty"`
	Params      quotes.Params `json:"params"`
	Application Application   `json:"application"`
}

// moduleError is the flat error shape module callers expect, unlike the
// envelope used by the rest of the API.
type moduleError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CalculateShipping answers the calculate-shipping module request with the
// quoted shipping services, or a preview when no destination is given.
func CalculateShipping(svc QuoteService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			writeModuleError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var body CalculateShippingRequest
		if err := validators.DecodeLooseJSONBody(r, &body); err != nil {
			writeModuleError(ctx, logg, w, err)
			return
		}

		merged, err := appconfig.MergeDocuments(body.Application.Data, body.Application.HiddenData)
		if err != nil {
			writeModuleError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application data"))
			return
		}
		data, err := appconfig.Parse(merged)
		if err != nil {
			writeModuleError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application data"))
			return
		}

		resp, err := svc.Calculate(ctx, body.Params, data)
		if err != nil {
			writeModuleError(ctx, logg, w, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeModuleError answers module failures in the flat {error, message}
// shape, passing the typed message through when the metadata allows it.
func writeModuleError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	if typed.Code() != pkgerrors.CodeInternal && typed.Message() != "" {
		msg = typed.Message()
	}

	if logg != nil {
		logg.Error(logg.WithField(ctx, "error_code", string(typed.Code())), "calculate shipping failed", err)
	}

	writeJSON(w, meta.HTTPStatus, moduleError{
		Error:   string(typed.Code()),
		Message: msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
