// Package kangu is the HTTP gateway to the Kangu TMS API: rate simulation
// and shipping-tag solicitation. Calls are single-shot with no retry; the
// platform decides whether a webhook delivery is retried.
package kangu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/shipbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
)

const (
	quotePath = "/tms/transporte/simular"
	labelPath = "/tms/transporte/solicitar"
)

var errLoggerRequired = errors.New("kangu logger is required")

// Client wraps the Kangu endpoints with centralized auth headers, logging
// and error mapping to the domain taxonomy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient initializes the Kangu gateway.
func NewClient(cfg config.KanguConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("kangu base url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		logger:     logg,
	}, nil
}

// Quote simulates shipping for the given packages and returns the carrier's
// rate records. The merchant's carrier token authenticates the call.
func (c *Client) Quote(ctx context.Context, token string, req QuoteRequest) ([]RateOption, error) {
	c.log(ctx, "request", "quote", map[string]any{
		"origin_zip":      req.CepOrigem,
		"destination_zip": req.CepDestino,
		"items":           len(req.Produtos),
	})

	body, status, err := c.post(ctx, token, quotePath, req)
	if err != nil {
		c.log(ctx, "error", "quote", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrierUnreachable, err, "kangu quote request failed")
	}

	payload := normalizeBody(body)
	var options []RateOption
	if status == http.StatusOK && len(payload) > 0 && payload[0] == '[' {
		if err := json.Unmarshal(payload, &options); err == nil {
			c.log(ctx, "response", "quote", map[string]any{"options": len(options)})
			return options, nil
		}
	}

	mapped := c.mapFailure(status, payload, body, "quote")
	c.log(ctx, "error", "quote", map[string]any{"status": status, "error": mapped.Error()})
	return nil, mapped
}

// CreateLabel solicits a shipping tag for a priced order.
func (c *Client) CreateLabel(ctx context.Context, token string, req LabelRequest) (*LabelResponse, error) {
	c.log(ctx, "request", "create_label", map[string]any{
		"order":    req.Pedido.NumeroCli,
		"services": req.Servicos,
		"items":    len(req.Produtos),
	})

	body, status, err := c.post(ctx, token, labelPath, req)
	if err != nil {
		c.log(ctx, "error", "create_label", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrierUnreachable, err, "kangu label request failed")
	}

	payload := normalizeBody(body)
	if status >= 200 && status < 300 {
		var label LabelResponse
		if err := json.Unmarshal(payload, &label); err == nil {
			c.log(ctx, "response", "create_label", map[string]any{
				"tag_id": label.Codigo.String(),
				"tags":   len(label.Etiquetas),
			})
			return &label, nil
		}
	}

	mapped := c.mapFailure(status, payload, body, "create label")
	c.log(ctx, "error", "create_label", map[string]any{"status": status, "error": mapped.Error()})
	return nil, mapped
}

func (c *Client) post(ctx context.Context, token, path string, payload any) ([]byte, int, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("token", token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// normalizeBody unwraps the carrier's habit of double-encoding JSON bodies
// as strings.
func normalizeBody(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return trimmed
	}
	return []byte(inner)
}

// mapFailure classifies a non-success carrier answer: a structured error
// body is a business rejection to surface verbatim, anything unparseable is
// an invalid response with the raw body preserved for diagnosis.
func (c *Client) mapFailure(status int, payload, raw []byte, op string) error {
	var structured struct {
		Data  any    `json:"data"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &structured); err == nil {
		if structured.Data != nil {
			return pkgerrors.New(pkgerrors.CodeCarrierRejected, fmt.Sprint(structured.Data)).
				WithDetails(map[string]any{"status": status})
		}
		if structured.Error != "" {
			return pkgerrors.New(pkgerrors.CodeCarrierRejected, structured.Error).
				WithDetails(map[string]any{"status": status})
		}
	}
	return pkgerrors.New(pkgerrors.CodeCarrierInvalidResponse, fmt.Sprintf("invalid kangu %s response (%d)", op, status)).
		WithDetails(map[string]any{"status": status, "body": string(raw)})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("kangu %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("kangu %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "doc", "cpf", "cnpj", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
