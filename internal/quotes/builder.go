// Package quotes implements the rate-quote pipeline: it builds the carrier
// simulation payload from a cart, maps the raw rate records into platform
// shipping services and applies the merchant's pricing rules.
package quotes

import (
	"strings"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
	"github.com/angelmondragon/shipbridge-backend/pkg/units"
	"github.com/shopspring/decimal"
)

// requestOrigin identifies the calling platform on carrier payloads.
const requestOrigin = "E-Com Plus"

// quoteServices is the fixed carrier service class filter: economic,
// express and pickup-point delivery.
var quoteServices = []string{"E", "X", "R"}

// Params is the calculate-shipping request body sent by the platform.
type Params struct {
	Items    []types.CartItem `json:"items,omitempty"`
	Subtotal float64          `json:"subtotal,omitempty"`
	From     *types.Address   `json:"from,omitempty"`
	To       *types.Address   `json:"to,omitempty"`
}

// QuoteContext carries the carrier payload plus the request-scoped values
// the response mapper needs afterwards.
type QuoteContext struct {
	Request        kangu.QuoteRequest
	Token          string
	OriginZip      string
	DestinationZip string
	TotalWeightKg  float64
	CartSubtotal   decimal.Decimal
}

// BuildQuoteRequest assembles the carrier simulation payload from the cart
// and the merchant configuration. It fails before any network call when the
// merchant has not finished configuring the app or the cart is empty.
func BuildQuoteRequest(params Params, data appconfig.AppData) (*QuoteContext, error) {
	token := strings.TrimSpace(data.KanguToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "carrier token unset on app configuration")
	}

	originZip := ""
	if params.From != nil {
		originZip = rules.NormalizeZip(params.From.Zip)
	}
	if originZip == "" {
		originZip = rules.NormalizeZip(data.OriginZip())
	}
	if originZip == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "origin zip code unset on app configuration")
	}

	destinationZip := ""
	if params.To != nil {
		destinationZip = rules.NormalizeZip(params.To.Zip)
	}

	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot calculate shipping without cart items")
	}

	totalWeight := 0.0
	cartSubtotal := decimal.Zero
	produtos := make([]kangu.Product, 0, len(params.Items))
	for _, item := range params.Items {
		weightKg := units.WeightKg(item.Weight)
		height, width, length := units.DimensionsCm(item.Dimensions)
		price := item.EffectivePrice()

		totalWeight += float64(item.Quantity) * weightKg
		cartSubtotal = cartSubtotal.Add(
			decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(item.Quantity))))

		produtos = append(produtos, kangu.Product{
			Peso:        weightKg,
			Altura:      height,
			Largura:     width,
			Comprimento: length,
			Valor:       price,
			Quantidade:  item.Quantity,
			Produto:     item.Name,
		})
	}

	return &QuoteContext{
		Request: kangu.QuoteRequest{
			CepOrigem:  originZip,
			CepDestino: destinationZip,
			Origem:     requestOrigin,
			Servicos:   quoteServices,
			Ordernar:   data.Ordering(),
			Produtos:   produtos,
		},
		Token:          token,
		OriginZip:      originZip,
		DestinationZip: destinationZip,
		TotalWeightKg:  totalWeight,
		CartSubtotal:   cartSubtotal,
	}, nil
}
