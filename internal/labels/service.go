package labels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/metrics"
	"github.com/angelmondragon/shipbridge-backend/pkg/platform"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// Hidden metafield written on the order once a tag is generated.
const (
	MetafieldNamespace = "app-kangu"
	MetafieldField     = "rastreio"
)

type carrierGateway interface {
	CreateLabel(ctx context.Context, token string, req kangu.LabelRequest) (*kangu.LabelResponse, error)
}

type orderClient interface {
	GetProduct(ctx context.Context, storeID int, creds platform.Credentials, productID string) (*types.Product, error)
	PatchOrder(ctx context.Context, storeID int, creds platform.Credentials, orderID, subpath string, body any) error
	PostOrderResource(ctx context.Context, storeID int, creds platform.Credentials, orderID, subpath string, body any) error
}

// Service runs the label operation end to end, including the order
// write-back.
type Service interface {
	CreateLabel(ctx context.Context, storeID int, creds platform.Credentials, order *types.Order, data appconfig.AppData) (*Result, error)
}

type service struct {
	gateway carrierGateway
	orders  orderClient
	log     *logger.Logger
	metrics *metrics.CarrierMetrics
}

// NewService builds the label service. Metrics are optional.
func NewService(gateway carrierGateway, orders orderClient, log *logger.Logger, m *metrics.CarrierMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("carrier gateway required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	return &service{gateway: gateway, orders: orders, log: log, metrics: m}, nil
}

// CreateLabel generates a shipping tag for the order's app shipping line and
// writes the tag id and tracking code back to the order. Nothing is written
// when tag creation fails, so a later retry is safe.
func (s *service) CreateLabel(ctx context.Context, storeID int, creds platform.Credentials, order *types.Order, data appconfig.AppData) (*Result, error) {
	token := strings.TrimSpace(data.KanguToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "carrier token unset on app configuration")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	line := appShippingLine(order)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no app-priced shipping line")
	}

	resolve := func(ctx context.Context, productID string) (*types.Product, error) {
		return s.orders.GetProduct(ctx, storeID, creds, productID)
	}
	build, err := BuildLabelRequest(ctx, order, line, data, resolve)
	if err != nil {
		return nil, err
	}
	if build.SkippedItems > 0 {
		s.logError(ctx, order.ID, "order items skipped on label request", build.ItemErrors)
	}

	started := time.Now()
	resp, err := s.gateway.CreateLabel(ctx, token, *build.Request)
	s.metrics.ObserveDuration(metrics.OpLabel, time.Since(started))
	if err != nil {
		s.metrics.IncFailure(metrics.OpLabel)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpLabel)

	result, err := MapLabelResponse(resp)
	if err != nil {
		return nil, err
	}
	result.SkippedItems = build.SkippedItems

	// tag id goes to a hidden metafield; a failure here is logged and
	// tolerated since the tag already exists on the carrier side
	metafield := map[string]string{
		"namespace": MetafieldNamespace,
		"field":     MetafieldField,
		"value":     result.TagID,
	}
	if err := s.orders.PostOrderResource(ctx, storeID, creds, order.ID, "hidden_metafields", metafield); err != nil {
		s.logError(ctx, order.ID, "hidden metafield write failed", err)
	}

	if result.TrackingCode != "" {
		trackingCodes := append([]types.TrackingCode{}, line.TrackingCodes...)
		trackingCodes = append(trackingCodes, types.TrackingCode{
			Code: result.TrackingCode,
			Link: result.TrackingLink,
		})
		subpath := "shipping_lines/" + line.ID
		body := map[string]any{"tracking_codes": trackingCodes}
		if err := s.orders.PatchOrder(ctx, storeID, creds, order.ID, subpath, body); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tracking code write-back failed")
		}
	}

	if s.log != nil {
		s.log.Info(s.log.WithOrderID(ctx, order.ID), "shipping tag created")
	}
	return result, nil
}

// appShippingLine returns the first shipping line priced by an app.
func appShippingLine(order *types.Order) *types.ShippingLine {
	for i := range order.ShippingLines {
		if order.ShippingLines[i].App != nil {
			return &order.ShippingLines[i]
		}
	}
	return nil
}

func (s *service) logError(ctx context.Context, orderID, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(s.log.WithOrderID(ctx, orderID), msg, err)
}
