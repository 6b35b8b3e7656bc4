package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

type carrierGateway interface {
	Quote(ctx context.Context, token string, req kangu.QuoteRequest) ([]kangu.RateOption, error)
}

// Service runs the quote operation end to end.
type Service interface {
	Calculate(ctx context.Context, params Params, data appconfig.AppData) (*CalculateResponse, error)
}

type service struct {
	gateway carrierGateway
	log     *logger.Logger
	metrics *metrics.CarrierMetrics
}

// NewService builds the quote service. Metrics are optional.
func NewService(gateway carrierGateway, log *logger.Logger, m *metrics.CarrierMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("carrier gateway required")
	}
	return &service{gateway: gateway, log: log, metrics: m}, nil
}

// Calculate prices a cart. Without a destination address it answers with the
// free-shipping preview only and never calls the carrier.
func (s *service) Calculate(ctx context.Context, params Params, data appconfig.AppData) (*CalculateResponse, error) {
	if strings.TrimSpace(data.KanguToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "carrier token unset on app configuration")
	}

	destinationZip := ""
	if params.To != nil {
		destinationZip = rules.NormalizeZip(params.To.Zip)
	}

	var seed *decimal.Decimal
	if data.FreeShippingFromValue != nil && *data.FreeShippingFromValue >= 0 {
		value := decimal.NewFromFloat(*data.FreeShippingFromValue)
		seed = &value
	}
	threshold := rules.FreeShippingThreshold(data.FreeShippingRules, destinationZip, seed)

	response := &CalculateResponse{ShippingServices: []ShippingService{}}
	if threshold != nil {
		value, _ := threshold.Float64()
		response.FreeShippingFromValue = &value
	}

	if params.To == nil {
		// free shipping preview only, no shipping address received
		return response, nil
	}

	qc, err := BuildQuoteRequest(params, data)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	records, err := s.gateway.Quote(ctx, qc.Token, qc.Request)
	s.metrics.ObserveDuration(metrics.OpQuote, time.Since(started))
	if err != nil {
		s.metrics.IncFailure(metrics.OpQuote)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpQuote)

	cheapest := -1
	for _, record := range records {
		option := mapOption(record, qc, params, data)
		response.ShippingServices = append(response.ShippingServices, option)
		if cheapest < 0 || record.VlrFrete < response.ShippingServices[cheapest].ShippingLine.Price {
			cheapest = len(response.ShippingServices) - 1
		}
	}

	// free shipping zeroes exactly the cheapest option by raw carrier price
	if cheapest >= 0 && threshold != nil && threshold.LessThanOrEqual(qc.CartSubtotal) {
		line := &response.ShippingServices[cheapest].ShippingLine
		line.Discount = line.Price
		line.TotalPrice = 0
	}

	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"destination_zip": destinationZip,
			"options":         len(response.ShippingServices),
		}), "shipping quote calculated")
	}
	return response, nil
}
