// Package rules evaluates the merchant-configured shipping rule set against
// quote candidates: free-shipping thresholds, per-service price adjustments
// and display-label overrides.
package rules

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeZip strips everything but digits from a zip code.
func NormalizeZip(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ZipRange bounds a destination zip numerically; either side may be open.
type ZipRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Matches reports whether the destination zip falls inside the range. An
// empty zip, a nil range or a malformed zip degrades to "no constraint".
func (z *ZipRange) Matches(destinationZip string) bool {
	if z == nil || destinationZip == "" {
		return true
	}
	zip, err := strconv.Atoi(destinationZip)
	if err != nil {
		return true
	}
	if z.Min != nil && zip < *z.Min {
		return false
	}
	if z.Max != nil && zip > *z.Max {
		return false
	}
	return true
}

// FreeShippingRule grants free shipping above a spend threshold inside a zip
// range; a rule without a threshold grants it unconditionally.
type FreeShippingRule struct {
	ZipRange  *ZipRange `json:"zip_range,omitempty"`
	MinAmount *float64  `json:"min_amount,omitempty"`
}

// Discount adjusts a shipping price; Value is subtracted from the total, so a
// negative value is a surcharge. When Percentage is set, Value is read as a
// percentage of the current total.
type Discount struct {
	Percentage bool    `json:"percentage,omitempty"`
	Value      float64 `json:"value"`
}

// ShippingRule adjusts the price of a matching service for qualifying carts.
type ShippingRule struct {
	ServiceName string    `json:"service_name,omitempty"`
	ServiceCode string    `json:"service_code,omitempty"`
	ZipRange    *ZipRange `json:"zip_range,omitempty"`
	MinAmount   float64   `json:"min_amount,omitempty"`
	Discount    *Discount `json:"discount,omitempty"`
}

// ServiceOverride relabels a carrier service for display.
type ServiceOverride struct {
	Label       string `json:"label,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	ServiceCode string `json:"service_code,omitempty"`
}

// matchService compares a rule's service matcher against a service display
// name: service_name takes priority over service_code, trimmed and
// case-insensitive; a rule with neither field matches any service.
func matchService(serviceName, serviceCode, name string) bool {
	for _, field := range []string{serviceName, serviceCode} {
		if field != "" {
			return strings.EqualFold(strings.TrimSpace(field), strings.TrimSpace(name))
		}
	}
	return true
}

// FreeShippingThreshold folds the configured free-shipping rules for the
// destination into a single spend threshold. The lowest qualifying
// min_amount wins across all matching rules; a matching rule without a
// min_amount short-circuits to zero. seed carries the merchant's flat
// free_shipping_from_value, when configured. nil means no free shipping.
func FreeShippingThreshold(ruleSet []FreeShippingRule, destinationZip string, seed *decimal.Decimal) *decimal.Decimal {
	threshold := seed
	for _, rule := range ruleSet {
		if !rule.ZipRange.Matches(destinationZip) {
			continue
		}
		if rule.MinAmount == nil {
			zero := decimal.Zero
			return &zero
		}
		amount := decimal.NewFromFloat(*rule.MinAmount)
		if threshold == nil || amount.LessThan(*threshold) {
			threshold = &amount
		}
	}
	return threshold
}

// Adjustment is the outcome of shipping-rule evaluation for one option.
type Adjustment struct {
	TotalPrice decimal.Decimal
	Discount   decimal.Decimal
	Applied    bool
}

// ApplyShippingRules evaluates the ordered rule list against one shipping
// option and returns the adjusted total. The first rule whose service
// matcher, zip range and spend floor all pass is applied and evaluation
// stops; later rules never stack. The total is clamped at zero.
func ApplyShippingRules(ruleSet []ShippingRule, serviceName, destinationZip string, cartSubtotal, totalPrice decimal.Decimal) Adjustment {
	result := Adjustment{TotalPrice: totalPrice}
	for _, rule := range ruleSet {
		if !matchService(rule.ServiceName, rule.ServiceCode, serviceName) {
			continue
		}
		if !rule.ZipRange.Matches(destinationZip) {
			continue
		}
		if decimal.NewFromFloat(rule.MinAmount).GreaterThan(cartSubtotal) {
			continue
		}
		// a qualifying rule lacking a discount or an explicit service name
		// is ignored without stopping evaluation
		if rule.Discount == nil || rule.ServiceName == "" {
			continue
		}

		discount := decimal.NewFromFloat(rule.Discount.Value)
		if rule.Discount.Percentage {
			discount = result.TotalPrice.Mul(discount).Div(decimal.NewFromInt(100))
		}
		result.Discount = discount
		result.TotalPrice = result.TotalPrice.Sub(discount)
		if result.TotalPrice.IsNegative() {
			result.TotalPrice = decimal.Zero
		}
		result.Applied = true
		break
	}
	return result
}

// ServiceLabel resolves the display label for a carrier service, honoring at
// most one configured override; the carrier's own name is the fallback.
func ServiceLabel(overrides []ServiceOverride, serviceName string) string {
	for _, override := range overrides {
		if matchService(override.ServiceName, override.ServiceCode, serviceName) {
			if override.Label != "" {
				return override.Label
			}
			break
		}
	}
	return serviceName
}
