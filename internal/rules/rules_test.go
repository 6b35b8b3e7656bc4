package rules

import (
	"testing"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestZipRangeMatches(t *testing.T) {
	t.Parallel()

	bounded := &ZipRange{Min: intPtr(1000000), Max: intPtr(3999999)}
	if !bounded.Matches("2500000") {
		t.Fatal("zip inside range should match")
	}
	if bounded.Matches("4000000") {
		t.Fatal("zip above range should not match")
	}
	if bounded.Matches("0999999") {
		t.Fatal("zip below range should not match")
	}

	if !bounded.Matches("") {
		t.Fatal("absent destination zip makes the rule unconstrained")
	}
	if !(*ZipRange)(nil).Matches("2500000") {
		t.Fatal("absent range matches everything")
	}
	if !bounded.Matches("not-a-zip") {
		t.Fatal("malformed zip should degrade to no constraint")
	}

	open := &ZipRange{Min: intPtr(9000000)}
	if open.Matches("8999999") {
		t.Fatal("open max still enforces min")
	}
	if !open.Matches("9000000") {
		t.Fatal("min bound is inclusive")
	}
}

func TestZipRangeInvertedBounds(t *testing.T) {
	t.Parallel()

	// degenerate min > max rejects anything strictly between them
	inverted := &ZipRange{Min: intPtr(5000000), Max: intPtr(1000000)}
	if inverted.Matches("3000000") {
		t.Fatal("value between max and min should fail both bounds")
	}
	if !inverted.Matches("") {
		t.Fatal("absent zip is vacuously matched even for inverted ranges")
	}
}

func TestFreeShippingThresholdMinimumWins(t *testing.T) {
	t.Parallel()

	ruleSet := []FreeShippingRule{
		{MinAmount: floatPtr(100)},
		{MinAmount: floatPtr(50)},
		{MinAmount: floatPtr(80)},
	}
	got := FreeShippingThreshold(ruleSet, "1310100", nil)
	if got == nil || !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected threshold 50, got %v", got)
	}
}

func TestFreeShippingThresholdUnconditionalShortCircuits(t *testing.T) {
	t.Parallel()

	ruleSet := []FreeShippingRule{
		{MinAmount: floatPtr(100)},
		{},
		{MinAmount: floatPtr(10)},
	}
	got := FreeShippingThreshold(ruleSet, "", nil)
	if got == nil || !got.IsZero() {
		t.Fatalf("expected unconditional free shipping (0), got %v", got)
	}
}

func TestFreeShippingThresholdZipFiltered(t *testing.T) {
	t.Parallel()

	ruleSet := []FreeShippingRule{
		{ZipRange: &ZipRange{Min: intPtr(9000000)}, MinAmount: floatPtr(10)},
		{MinAmount: floatPtr(150)},
	}
	got := FreeShippingThreshold(ruleSet, "1310100", nil)
	if got == nil || !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected rule outside zip range to be skipped, got %v", got)
	}
}

func TestFreeShippingThresholdSeedLowers(t *testing.T) {
	t.Parallel()

	seed := decimal.NewFromInt(40)
	ruleSet := []FreeShippingRule{{MinAmount: floatPtr(60)}}
	got := FreeShippingThreshold(ruleSet, "", &seed)
	if got == nil || !got.Equal(seed) {
		t.Fatalf("expected lower seed to survive, got %v", got)
	}

	if got := FreeShippingThreshold(nil, "", nil); got != nil {
		t.Fatalf("no rules and no seed should yield nil, got %v", got)
	}
}

func TestApplyShippingRulesFirstMatchWins(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		{ServiceName: "Sedex", Discount: &Discount{Value: 5}},
		{ServiceName: "Sedex", Discount: &Discount{Value: 50}},
	}
	adj := ApplyShippingRules(ruleSet, "Sedex", "1310100", decimal.NewFromInt(200), decimal.NewFromInt(30))
	if !adj.Applied {
		t.Fatal("expected first rule to apply")
	}
	if !adj.TotalPrice.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected total 25 from first rule only, got %v", adj.TotalPrice)
	}
	if !adj.Discount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected discount 5, got %v", adj.Discount)
	}
}

func TestApplyShippingRulesPercentage(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		{ServiceName: "PAC", Discount: &Discount{Percentage: true, Value: 10}},
	}
	adj := ApplyShippingRules(ruleSet, " pac ", "", decimal.NewFromInt(100), decimal.NewFromInt(40))
	if !adj.TotalPrice.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("expected 10%% off 40 = 36, got %v", adj.TotalPrice)
	}
}

func TestApplyShippingRulesClampsAtZero(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		{ServiceName: "Sedex", Discount: &Discount{Value: 999}},
	}
	adj := ApplyShippingRules(ruleSet, "Sedex", "", decimal.NewFromInt(100), decimal.NewFromInt(30))
	if !adj.TotalPrice.IsZero() {
		t.Fatalf("expected total clamped to 0, got %v", adj.TotalPrice)
	}
}

func TestApplyShippingRulesNegativeValueIsSurcharge(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		{ServiceName: "Sedex", Discount: &Discount{Value: -7.5}},
	}
	adj := ApplyShippingRules(ruleSet, "Sedex", "", decimal.NewFromInt(100), decimal.NewFromInt(30))
	if !adj.TotalPrice.Equal(decimal.NewFromFloat(37.5)) {
		t.Fatalf("expected surcharge to raise total to 37.5, got %v", adj.TotalPrice)
	}
}

func TestApplyShippingRulesSkipsNonQualifying(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		// spend floor not reached
		{ServiceName: "Sedex", MinAmount: 500, Discount: &Discount{Value: 10}},
		// matching rule without a discount does not stop evaluation
		{ServiceName: "Sedex"},
		// wrong service
		{ServiceName: "PAC", Discount: &Discount{Value: 3}},
		{ServiceName: "Sedex", Discount: &Discount{Value: 2}},
	}
	adj := ApplyShippingRules(ruleSet, "Sedex", "", decimal.NewFromInt(100), decimal.NewFromInt(30))
	if !adj.TotalPrice.Equal(decimal.NewFromInt(28)) {
		t.Fatalf("expected last rule to apply for total 28, got %v", adj.TotalPrice)
	}
}

func TestApplyShippingRulesServiceCodeFallback(t *testing.T) {
	t.Parallel()

	ruleSet := []ShippingRule{
		{ServiceName: "Rapidão", ServiceCode: "E", Discount: &Discount{Value: 1}},
	}
	// service_name present takes priority over service_code
	adj := ApplyShippingRules(ruleSet, "E", "", decimal.NewFromInt(100), decimal.NewFromInt(10))
	if adj.Applied {
		t.Fatal("service_name should shadow service_code in matching")
	}
}

func TestServiceLabel(t *testing.T) {
	t.Parallel()

	overrides := []ServiceOverride{
		{ServiceName: "Sedex", Label: "Entrega Expressa"},
		{ServiceName: "PAC", Label: "Entrega Econômica"},
	}
	if got := ServiceLabel(overrides, "sedex"); got != "Entrega Expressa" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := ServiceLabel(overrides, "Transportadora X"); got != "Transportadora X" {
		t.Fatalf("expected fallback to carrier name, got %q", got)
	}
	if got := ServiceLabel(nil, "PAC"); got != "PAC" {
		t.Fatalf("expected passthrough without overrides, got %q", got)
	}
	// an override that matches but has no label falls back
	if got := ServiceLabel([]ServiceOverride{{ServiceName: "PAC"}}, "PAC"); got != "PAC" {
		t.Fatalf("expected fallback for empty label, got %q", got)
	}
}

func TestNormalizeZip(t *testing.T) {
	cases := map[string]string{
		"01310-100":  "01310100",
		"01310100":   "01310100",
		" 04001/000": "04001000",
		"":           "",
		"abc":        "",
	}
	for input, want := range cases {
		if got := NormalizeZip(input); got != want {
			t.Fatalf("NormalizeZip(%q) = %q, want %q", input, got, want)
		}
	}
}
