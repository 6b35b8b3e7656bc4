package appconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// DefaultOrdering is sent to the carrier when the merchant has not picked one.
const DefaultOrdering = "preco"

// Seller identifies the merchant on generated labels.
type Seller struct {
	Name      string `json:"name,omitempty"`
	DocNumber string `json:"doc_number,omitempty"`
	Contact   string `json:"contact,omitempty"`
}

// AppData is the per-store configuration document. It is stored as a
// single JSON blob so merchants can edit it through the platform admin
// without schema migrations on our side.
type AppData struct {
	KanguToken            string                   `json:"kangu_token,omitempty"`
	Zip                   string                   `json:"zip,omitempty"`
	From                  *types.Address           `json:"from,omitempty"`
	Ordernar              string                   `json:"ordernar,omitempty"`
	AdditionalPrice       float64                  `json:"additional_price,omitempty"`
	FreeShippingFromValue *float64                 `json:"free_shipping_from_value,omitempty"`
	FreeShippingRules     []rules.FreeShippingRule `json:"free_shipping_rules,omitempty"`
	ShippingRules         []rules.ShippingRule     `json:"shipping_rules,omitempty"`
	Services              []rules.ServiceOverride  `json:"services,omitempty"`
	PostingDeadline       *types.PostingDeadline   `json:"posting_deadline,omitempty"`
	Seller                *Seller                  `json:"seller,omitempty"`
	EnableAutoTag         bool                     `json:"enable_auto_tag,omitempty"`
	IgnoreTriggers        []string                 `json:"ignore_triggers,omitempty"`
}

// Ordering returns the carrier sort preference, falling back to the default.
func (d AppData) Ordering() string {
	if strings.TrimSpace(d.Ordernar) == "" {
		return DefaultOrdering
	}
	return d.Ordernar
}

// OriginZip prefers the explicit zip field over the origin address zip.
func (d AppData) OriginZip() string {
	if d.Zip != "" {
		return d.Zip
	}
	if d.From != nil {
		return d.From.Zip
	}
	return ""
}

// TriggerIgnored reports whether the merchant opted a webhook trigger out.
func (d AppData) TriggerIgnored(trigger string) bool {
	for _, ignored := range d.IgnoreTriggers {
		if strings.EqualFold(strings.TrimSpace(ignored), trigger) {
			return true
		}
	}
	return false
}

// Parse decodes a stored configuration document into AppData. An empty
// document yields the zero value.
func Parse(doc types.JSONDocument) (AppData, error) {
	var data AppData
	if len(doc) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(doc, &data); err != nil {
		return data, fmt.Errorf("decoding app data: %w", err)
	}
	return data, nil
}

// MergeDocuments overlays the hidden document on top of the public one,
// key by key. Hidden values win because that is where the merchant's
// private settings (such as the carrier token) live.
func MergeDocuments(data, hidden types.JSONDocument) (types.JSONDocument, error) {
	merged := map[string]json.RawMessage{}
	for _, doc := range []types.JSONDocument{data, hidden} {
		if len(doc) == 0 {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("decoding config document: %w", err)
		}
		for key, value := range fields {
			merged[key] = value
		}
	}
	if len(merged) == 0 {
		return nil, nil
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	return types.JSONDocument(out), nil
}
