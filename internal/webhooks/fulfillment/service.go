// Package fulfillment handles order trigger webhooks from the platform:
// when an order priced by this app becomes ready for shipping, it creates
// the carrier tag automatically.
package fulfillment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/labels"
	"github.com/angelmondragon/shipbridge-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/platform"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// StatusReadyForShipping is the fulfillment status that fires tag creation.
const StatusReadyForShipping = "ready_for_shipping"

// Outcome is the webhook echo answered to the platform.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeSkip    Outcome = "SKIP"
)

// Trigger is the platform's webhook notification body.
type Trigger struct {
	Resource   string        `json:"resource"`
	ResourceID string        `json:"resource_id"`
	Body       *TriggerOrder `json:"body,omitempty"`
}

// TriggerOrder is the partial order snapshot carried by the trigger.
type TriggerOrder struct {
	FulfillmentStatus *types.FulfillmentStatus `json:"fulfillment_status,omitempty"`
}

type configReader interface {
	Get(ctx context.Context, storeID int) (appconfig.AppData, error)
}

type credentialsReader interface {
	Credentials(ctx context.Context, storeID int) (platform.Credentials, error)
}

type orderReader interface {
	GetOrder(ctx context.Context, storeID int, creds platform.Credentials, orderID string) (*types.Order, error)
}

type labelCreator interface {
	CreateLabel(ctx context.Context, storeID int, creds platform.Credentials, order *types.Order, data appconfig.AppData) (*labels.Result, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

// Service dispatches order triggers.
type Service struct {
	configs     configReader
	credentials credentialsReader
	orders      orderReader
	labels      labelCreator
	guard       deliveryGuard
	log         *logger.Logger
}

// ServiceParams wires the webhook service collaborators. Guard is optional;
// without it duplicate deliveries reach the carrier.
type ServiceParams struct {
	Configs     configReader
	Credentials credentialsReader
	Orders      orderReader
	Labels      labelCreator
	Guard       deliveryGuard
	Log         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Configs == nil {
		return nil, fmt.Errorf("config reader required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credentials reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Labels == nil {
		return nil, fmt.Errorf("label service required")
	}
	return &Service{
		configs:     params.Configs,
		credentials: params.Credentials,
		orders:      params.Orders,
		labels:      params.Labels,
		guard:       params.Guard,
		log:         params.Log,
	}, nil
}

// Handle processes one trigger delivery. Triggers that do not concern an
// auto-taggable order answer SUCCESS without side effects; orders priced by
// another app answer SKIP.
func (s *Service) Handle(ctx context.Context, storeID int, trigger Trigger) (Outcome, error) {
	data, err := s.configs.Get(ctx, storeID)
	if err != nil {
		return "", err
	}

	if data.TriggerIgnored(trigger.Resource) {
		return OutcomeSkip, nil
	}
	if !data.EnableAutoTag || strings.TrimSpace(data.KanguToken) == "" || trigger.Resource != "orders" {
		return OutcomeSuccess, nil
	}
	if !triggerReadyForShipping(trigger) {
		return OutcomeSuccess, nil
	}

	deliveryID := strconv.Itoa(storeID) + ":" + trigger.ResourceID
	if s.guard != nil {
		duplicate, err := s.guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim webhook delivery")
		}
		if duplicate {
			return OutcomeSkip, nil
		}
	}

	outcome, err := s.createTag(ctx, storeID, trigger.ResourceID, data)
	if err != nil && s.guard != nil {
		// release the claim so the platform's redelivery can retry
		if delErr := s.guard.Delete(ctx, deliveryID); delErr != nil && s.log != nil {
			s.log.Error(ctx, "release webhook delivery claim failed", delErr)
		}
	}
	return outcome, err
}

func (s *Service) createTag(ctx context.Context, storeID int, orderID string, data appconfig.AppData) (Outcome, error) {
	creds, err := s.credentials.Credentials(ctx, storeID)
	if err != nil {
		return "", err
	}

	order, err := s.orders.GetOrder(ctx, storeID, creds, orderID)
	if err != nil {
		return "", err
	}
	if !pricedByThisApp(order) {
		return OutcomeSkip, nil
	}

	if _, err := s.labels.CreateLabel(ctx, storeID, creds, order, data); err != nil {
		return "", err
	}
	if s.log != nil {
		s.log.Info(s.log.WithOrderID(s.log.WithStoreID(ctx, strconv.Itoa(storeID)), orderID), "auto tag created")
	}
	return OutcomeSuccess, nil
}

func triggerReadyForShipping(trigger Trigger) bool {
	return trigger.Body != nil &&
		trigger.Body.FulfillmentStatus != nil &&
		trigger.Body.FulfillmentStatus.Current == StatusReadyForShipping
}

// pricedByThisApp checks the correlation token written at quote time on any
// of the order's shipping lines.
func pricedByThisApp(order *types.Order) bool {
	if order == nil {
		return false
	}
	for _, line := range order.ShippingLines {
		if _, ok := line.CustomField(quotes.ReferenceField); ok {
			return true
		}
	}
	return false
}
