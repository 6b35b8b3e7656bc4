package quotes

import (
	"context"
	"testing"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
)

type stubGateway struct {
	records []kangu.RateOption
	err     error
	calls   int
	lastReq kangu.QuoteRequest
}

func (s *stubGateway) Quote(ctx context.Context, token string, req kangu.QuoteRequest) ([]kangu.RateOption, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func newTestService(t *testing.T, gateway *stubGateway) Service {
	t.Helper()
	svc, err := NewService(gateway, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresGateway(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Fatal("expected error creating service without gateway")
	}
}

func TestCalculateRequiresToken(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway)

	_, err := svc.Calculate(context.Background(), cartParams(), appconfig.AppData{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConfigMissing {
		t.Fatalf("expected config missing, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("carrier must not be called without a token")
	}
}

func TestCalculatePreviewWithoutDestination(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway)

	minAmount := 150.0
	data := configuredAppData()
	data.FreeShippingRules = []rules.FreeShippingRule{{MinAmount: &minAmount}}

	params := cartParams()
	params.To = nil

	resp, err := svc.Calculate(context.Background(), params, data)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("preview must not call the carrier")
	}
	if resp.FreeShippingFromValue == nil || *resp.FreeShippingFromValue != 150 {
		t.Fatalf("expected free shipping preview 150, got %v", resp.FreeShippingFromValue)
	}
	if len(resp.ShippingServices) != 0 {
		t.Fatalf("preview must carry no options, got %d", len(resp.ShippingServices))
	}
}

func TestCalculateFreeShippingZeroesCheapestOnly(t *testing.T) {
	gateway := &stubGateway{records: []kangu.RateOption{
		{Servico: "EXP", VlrFrete: 30, PrazoEnt: 2, TranspNome: "Rápida"},
		{Servico: "ECO", VlrFrete: 18, PrazoEnt: 8, TranspNome: "Econômica"},
		{Servico: "RET", VlrFrete: 22, PrazoEnt: 6, TranspNome: "Retira"},
	}}
	svc := newTestService(t, gateway)

	minAmount := 150.0
	data := configuredAppData()
	data.FreeShippingRules = []rules.FreeShippingRule{{MinAmount: &minAmount}}

	params := cartParams()
	params.Items[0].Quantity = 4
	params.Items[0].Price = 50 // cart subtotal 200
	params.Subtotal = 200

	resp, err := svc.Calculate(context.Background(), params, data)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if resp.FreeShippingFromValue == nil || *resp.FreeShippingFromValue != 150 {
		t.Fatalf("expected threshold 150, got %v", resp.FreeShippingFromValue)
	}
	if len(resp.ShippingServices) != 3 {
		t.Fatalf("expected 3 options, got %d", len(resp.ShippingServices))
	}

	cheapest := resp.ShippingServices[1].ShippingLine
	if cheapest.TotalPrice != 0 || cheapest.Discount != 18 {
		t.Fatalf("expected cheapest zeroed, got total=%v discount=%v", cheapest.TotalPrice, cheapest.Discount)
	}
	for _, i := range []int{0, 2} {
		line := resp.ShippingServices[i].ShippingLine
		if line.TotalPrice != line.Price || line.Discount != 0 {
			t.Fatalf("option %d must stay untouched: %+v", i, line)
		}
	}
}

func TestCalculateThresholdNotMetLeavesPricing(t *testing.T) {
	gateway := &stubGateway{records: []kangu.RateOption{
		{Servico: "ECO", VlrFrete: 18, PrazoEnt: 8},
	}}
	svc := newTestService(t, gateway)

	minAmount := 500.0
	data := configuredAppData()
	data.FreeShippingRules = []rules.FreeShippingRule{{MinAmount: &minAmount}}

	resp, err := svc.Calculate(context.Background(), cartParams(), data)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if line := resp.ShippingServices[0].ShippingLine; line.TotalPrice != 18 || line.Discount != 0 {
		t.Fatalf("expected untouched pricing, got %+v", line)
	}
}

func TestCalculateCarrierFailurePassesThrough(t *testing.T) {
	gateway := &stubGateway{err: pkgerrors.New(pkgerrors.CodeCarrierInvalidResponse, "carrier returned an unreadable quote response").
		WithDetails(map[string]any{"body": "<html>maintenance</html>"})}
	svc := newTestService(t, gateway)

	_, err := svc.Calculate(context.Background(), cartParams(), configuredAppData())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCarrierInvalidResponse {
		t.Fatalf("expected carrier invalid response, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["body"] != "<html>maintenance</html>" {
		t.Fatalf("expected raw body preserved, got %v", typed.Details())
	}
}

func TestCalculateEmptyCart(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway)

	params := cartParams()
	params.Items = nil

	_, err := svc.Calculate(context.Background(), params, configuredAppData())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("carrier must not be called with an empty cart")
	}
}

func TestCalculateSendsOrderingPreference(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway)

	data := configuredAppData()
	data.Ordernar = "prazo"

	if _, err := svc.Calculate(context.Background(), cartParams(), data); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if gateway.lastReq.Ordernar != "prazo" {
		t.Fatalf("expected ordering prazo, got %q", gateway.lastReq.Ordernar)
	}
}

func TestCalculateUnconditionalFreeShippingRule(t *testing.T) {
	gateway := &stubGateway{records: []kangu.RateOption{
		{Servico: "ECO", VlrFrete: 18, PrazoEnt: 8},
	}}
	svc := newTestService(t, gateway)

	data := configuredAppData()
	data.FreeShippingRules = []rules.FreeShippingRule{{
		ZipRange: &rules.ZipRange{Min: intPtr(4000000), Max: intPtr(5000000)},
	}}

	resp, err := svc.Calculate(context.Background(), cartParams(), data)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if resp.FreeShippingFromValue == nil || *resp.FreeShippingFromValue != 0 {
		t.Fatalf("expected threshold 0, got %v", resp.FreeShippingFromValue)
	}
	if line := resp.ShippingServices[0].ShippingLine; line.TotalPrice != 0 || line.Discount != 18 {
		t.Fatalf("expected zeroed option, got %+v", line)
	}
}

func intPtr(v int) *int { return &v }
