package quotes

import (
	"strconv"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Custom field keys written on every quoted shipping line. ReferenceField is
// the correlation token checked again at label time.
const (
	ReferenceField   = "kangu_reference"
	NfeRequiredField = "nfe_required"
)

const defaultPostingDays = 3

// ShippingService is one priced option of the calculate-shipping response.
type ShippingService struct {
	Label            string             `json:"label"`
	Carrier          string             `json:"carrier,omitempty"`
	CarrierDocNumber string             `json:"carrier_doc_number,omitempty"`
	ServiceName      string             `json:"service_name"`
	ServiceCode      string             `json:"service_code"`
	ShippingLine     types.ShippingLine `json:"shipping_line"`
}

// CalculateResponse is the module response for the quote operation.
type CalculateResponse struct {
	FreeShippingFromValue *float64          `json:"free_shipping_from_value,omitempty"`
	ShippingServices      []ShippingService `json:"shipping_services"`
}

// mapOption converts one raw rate record into a platform shipping service,
// applying the flat additional price and the merchant's shipping rules.
func mapOption(record kangu.RateOption, qc *QuoteContext, params Params, data appconfig.AppData) ShippingService {
	serviceCode := record.Servico.String()
	price := record.VlrFrete

	var pickup *kangu.PickupPoint
	if len(record.PontosRetira) > 0 {
		pickup = &record.PontosRetira[0]
	}
	reference := record.Referencia.String()
	if pickup != nil {
		reference = pickup.Referencia.String()
	}

	line := types.ShippingLine{
		From:            originAddress(params.From, data.From, qc.OriginZip),
		To:              params.To,
		Price:           price,
		TotalPrice:      price,
		DeliveryTime:    &types.DeliveryTime{Days: int(record.PrazoEnt), WorkingDays: true},
		PostingDeadline: postingDeadline(data.PostingDeadline),
		Package: &types.Package{
			Weight: &types.Measure{Value: qc.TotalWeightKg, Unit: "kg"},
		},
		CustomFields: []types.CustomField{
			{Field: ReferenceField, Value: reference},
			{Field: NfeRequiredField, Value: nfeRequired(record.NfObrig)},
		},
		Flags: []string{"kangu-ws", truncate("kangu-"+serviceCode, 20)},
	}
	if pickup != nil {
		line.DeliveryInstructions = pickup.Nome + " - " + pickupAddressLine(pickup.Endereco)
	}

	total := decimal.NewFromFloat(price)
	discount := decimal.Zero
	if data.AdditionalPrice != 0 {
		if data.AdditionalPrice > 0 {
			line.OtherAdditionals = []types.LineAdditional{{
				Tag:   "additional_price",
				Label: "Adicional padrão",
				Price: data.AdditionalPrice,
			}}
		} else {
			// negative additional price folds into the discount
			discount = discount.Sub(decimal.NewFromFloat(data.AdditionalPrice))
		}
		total = total.Add(decimal.NewFromFloat(data.AdditionalPrice))
	}

	serviceName := record.TranspNome
	if serviceName == "" {
		serviceName = record.Descricao
	}
	adj := rules.ApplyShippingRules(data.ShippingRules, serviceName, qc.DestinationZip,
		decimal.NewFromFloat(params.Subtotal), total)
	if adj.Applied {
		discount = discount.Add(adj.Discount)
	}
	line.TotalPrice, _ = adj.TotalPrice.Float64()
	line.Discount, _ = discount.Float64()

	displayName := record.Descricao
	if displayName == "" {
		displayName = serviceCode
	}

	return ShippingService{
		Label:            rules.ServiceLabel(data.Services, serviceName),
		Carrier:          record.TranspNome,
		CarrierDocNumber: truncate(digitsOnly(record.CnpjTransp), 19),
		ServiceName:      displayName + " (Kangu)",
		ServiceCode:      serviceCode,
		ShippingLine:     line,
	}
}

// originAddress merges the configured origin over the request origin; the
// normalized zip always wins.
func originAddress(fromParams, fromConfig *types.Address, originZip string) *types.Address {
	merged := types.Address{}
	if fromParams != nil {
		merged = *fromParams
	}
	if fromConfig != nil {
		overlayAddress(&merged, *fromConfig)
	}
	merged.Zip = originZip
	return &merged
}

func overlayAddress(dst *types.Address, src types.Address) {
	if src.Zip != "" {
		dst.Zip = src.Zip
	}
	if src.Street != "" {
		dst.Street = src.Street
	}
	if src.Number != 0 {
		dst.Number = src.Number
	}
	if src.Complement != "" {
		dst.Complement = src.Complement
	}
	if src.Borough != "" {
		dst.Borough = src.Borough
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.ProvinceCode != "" {
		dst.ProvinceCode = src.ProvinceCode
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
}

// pickupAddressLine reconstructs a single display line for a pickup point
// address, ending with the distance in meters.
func pickupAddressLine(addr *kangu.PickupAddress) string {
	if addr == nil || addr.Logradouro == "" {
		return ""
	}
	line := addr.Logradouro
	if addr.Numero != "" {
		line += ", " + addr.Numero.String()
	}
	if addr.Complemento != "" {
		line += " - " + addr.Complemento
	}
	if addr.Bairro != "" {
		line += ", " + addr.Bairro
	}
	if addr.Cidade != "" {
		line += ", " + addr.Cidade
	}
	line += " - " + strconv.FormatFloat(addr.Distancia, 'f', -1, 64) + "m"
	return line
}

func postingDeadline(configured *types.PostingDeadline) *types.PostingDeadline {
	deadline := types.PostingDeadline{Days: defaultPostingDays}
	if configured != nil {
		deadline = *configured
		if deadline.Days == 0 {
			deadline.Days = defaultPostingDays
		}
	}
	return &deadline
}

func nfeRequired(flag string) string {
	if flag == "N" {
		return "false"
	}
	return "true"
}

func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
