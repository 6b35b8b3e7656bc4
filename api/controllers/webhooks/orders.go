// Package webhooks receives the platform's trigger notifications. Answers
// are the echo strings the platform expects: SUCCESS, SKIP, or a
// STORE_API_ERR body on store-api failures.
package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/angelmondragon/shipbridge-backend/api/validators"
	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/webhooks/fulfillment"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

const echoStoreAPIErr = "STORE_API_ERR"

// storeIDHeader carries the store id on every platform request.
const storeIDHeader = "X-Store-Id"

// TriggerService dispatches order triggers.
type TriggerService interface {
	Handle(ctx context.Context, storeID int, trigger fulfillment.Trigger) (fulfillment.Outcome, error)
}

// ConfigWriter persists app configuration edits pushed by the platform.
type ConfigWriter interface {
	Set(ctx context.Context, storeID int, partial types.JSONDocument) (appconfig.AppData, error)
}

// triggerPayload is the raw trigger notification. The body shape depends on
// the resource, so it stays raw until the resource is known.
type triggerPayload struct {
	StoreID    int             `json:"store_id,omitempty"`
	Resource   string          `json:"resource"`
	ResourceID string          `json:"resource_id,omitempty"`
	Field      string          `json:"field,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// applicationBody is the application snapshot carried by applications
// triggers.
type applicationBody struct {
	Data       types.JSONDocument `json:"data,omitempty"`
	HiddenData types.JSONDocument `json:"hidden_data,omitempty"`
}

// OrdersTrigger handles platform trigger deliveries. Orders triggers go
// through the fulfillment dispatch; applications triggers sync the edited
// app data into the config store.
func OrdersTrigger(svc TriggerService, configs ConfigWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			writeTriggerError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trigger service unavailable"))
			return
		}

		var payload triggerPayload
		if err := validators.DecodeLooseJSONBody(r, &payload); err != nil {
			writeTriggerError(ctx, logg, w, err)
			return
		}

		storeID := payload.StoreID
		if header := r.Header.Get(storeIDHeader); header != "" {
			if parsed, err := strconv.Atoi(header); err == nil {
				storeID = parsed
			}
		}
		if storeID <= 0 {
			writeTriggerError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store id missing on trigger"))
			return
		}
		ctx = loggerCtx(ctx, logg, storeID)

		if payload.Resource == "applications" {
			syncAppData(ctx, configs, logg, w, storeID, payload)
			return
		}

		trigger := fulfillment.Trigger{
			Resource:   payload.Resource,
			ResourceID: payload.ResourceID,
		}
		if len(payload.Body) > 0 {
			var order fulfillment.TriggerOrder
			if err := json.Unmarshal(payload.Body, &order); err == nil {
				trigger.Body = &order
			}
		}

		outcome, err := svc.Handle(ctx, storeID, trigger)
		if err != nil {
			writeTriggerError(ctx, logg, w, err)
			return
		}
		writeEcho(w, outcome)
	}
}

// syncAppData persists the data and hidden_data of an edited application
// into the config store so the webhook path reads fresh settings.
func syncAppData(ctx context.Context, configs ConfigWriter, logg *logger.Logger, w http.ResponseWriter, storeID int, payload triggerPayload) {
	if configs == nil {
		writeEcho(w, fulfillment.OutcomeSkip)
		return
	}

	var app applicationBody
	if len(payload.Body) > 0 {
		if err := json.Unmarshal(payload.Body, &app); err != nil {
			writeTriggerError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application trigger body"))
			return
		}
	}

	merged, err := appconfig.MergeDocuments(app.Data, app.HiddenData)
	if err != nil {
		writeTriggerError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application trigger body"))
		return
	}
	if len(merged) == 0 {
		writeEcho(w, fulfillment.OutcomeSkip)
		return
	}

	if _, err := configs.Set(ctx, storeID, merged); err != nil {
		writeTriggerError(ctx, logg, w, err)
		return
	}
	if logg != nil {
		logg.Info(ctx, "app configuration synced from trigger")
	}
	writeEcho(w, fulfillment.OutcomeSuccess)
}

func writeEcho(w http.ResponseWriter, outcome fulfillment.Outcome) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(outcome))
}

// writeTriggerError answers failures the way the platform retries them:
// 412 for stores with no stored credentials, STORE_API_ERR otherwise.
func writeTriggerError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if logg != nil {
		logg.Error(ctx, "trigger processing failed", err)
	}

	typed := pkgerrors.As(err)
	if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = w.Write([]byte("webhook unhandled, no authentication found for store"))
		return
	}

	status := http.StatusInternalServerError
	if typed != nil {
		if meta := pkgerrors.MetadataFor(typed.Code()); meta.HTTPStatus == http.StatusBadRequest {
			status = meta.HTTPStatus
		}
	}

	msg := "trigger processing failed"
	if typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   echoStoreAPIErr,
		"message": msg,
	})
}

func loggerCtx(ctx context.Context, logg *logger.Logger, storeID int) context.Context {
	if logg == nil {
		return ctx
	}
	return logg.WithStoreID(ctx, strconv.Itoa(storeID))
}
