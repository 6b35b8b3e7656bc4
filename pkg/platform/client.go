// Package platform is the HTTP client for the e-commerce platform's Store
// API: order reads, order patches and product lookups, authenticated with
// the per-store credentials kept by the auth store.
package platform

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
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

// Credentials authenticates a single store against the Store API.
type Credentials struct {
	AuthenticationID string
	AccessToken      string
}

// Client talks to the Store API for one platform deployment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient initializes the Store API client.
func NewClient(cfg config.PlatformConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errors.New("platform logger is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("platform base url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		logger:     logg,
	}, nil
}

// GetOrder reads the full order resource.
func (c *Client) GetOrder(ctx context.Context, storeID int, creds Credentials, orderID string) (*types.Order, error) {
	var order types.Order
	path := fmt.Sprintf("/orders/%s.json", orderID)
	if err := c.request(ctx, http.MethodGet, storeID, creds, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetProduct resolves the full product resource for an order item.
func (c *Client) GetProduct(ctx context.Context, storeID int, creds Credentials, productID string) (*types.Product, error) {
	var product types.Product
	path := fmt.Sprintf("/products/%s.json", productID)
	if err := c.request(ctx, http.MethodGet, storeID, creds, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// PatchOrder partially updates an order subresource, e.g.
// "shipping_lines/<id>" with new tracking codes.
func (c *Client) PatchOrder(ctx context.Context, storeID int, creds Credentials, orderID, subpath string, body any) error {
	path := fmt.Sprintf("/orders/%s/%s.json", orderID, strings.Trim(subpath, "/"))
	return c.request(ctx, http.MethodPatch, storeID, creds, path, body, nil)
}

// PostOrderResource appends to an order subresource, e.g. hidden_metafields.
func (c *Client) PostOrderResource(ctx context.Context, storeID int, creds Credentials, orderID, subpath string, body any) error {
	path := fmt.Sprintf("/orders/%s/%s.json", orderID, strings.Trim(subpath, "/"))
	return c.request(ctx, http.MethodPost, storeID, creds, path, body, nil)
}

func (c *Client) request(ctx context.Context, method string, storeID int, creds Credentials, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding store api request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building store api request")
	}
	req.Header.Set("X-Store-ID", fmt.Sprint(storeID))
	req.Header.Set("X-My-ID", creds.AuthenticationID)
	req.Header.Set("X-Access-Token", creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("store api %s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading store api response")
	}

	if resp.StatusCode >= 400 {
		return c.mapStatus(resp.StatusCode, method, path, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding store api response").
				WithDetails(map[string]any{"path": path})
		}
	}
	return nil
}

func (c *Client) mapStatus(status int, method, path string, raw []byte) error {
	msg := fmt.Sprintf("store api %s %s returned %d", method, path, status)
	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	}
	return pkgerrors.New(code, msg).WithDetails(map[string]any{"body": string(raw)})
}
