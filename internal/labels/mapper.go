package labels

import (
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
)

// trackingLinkBase prefixes the public tracking page for generated codes.
const trackingLinkBase = "https://www.melhorrastreio.com.br/rastreio/"

// Result is the outcome of a successful label operation.
type Result struct {
	TagID        string `json:"tag_id"`
	TrackingCode string `json:"tracking_code,omitempty"`
	TrackingLink string `json:"tracking_link,omitempty"`
	SkippedItems int    `json:"skipped_items,omitempty"`
}

// MapLabelResponse extracts the tag id and the first tracking code from the
// carrier's label response.
func MapLabelResponse(resp *kangu.LabelResponse) (*Result, error) {
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCarrierInvalidResponse, "carrier returned an empty label response")
	}
	result := &Result{TagID: resp.Codigo.String()}
	if len(resp.Etiquetas) > 0 && resp.Etiquetas[0].NumeroTransp != "" {
		result.TrackingCode = resp.Etiquetas[0].NumeroTransp
		result.TrackingLink = trackingLinkBase + resp.Etiquetas[0].NumeroTransp
	}
	return result, nil
}
