package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/shipbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(config.PlatformConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, logg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/abc123.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Store-ID") != "51472" {
			t.Errorf("missing store id header")
		}
		if r.Header.Get("X-Access-Token") != "tok" {
			t.Errorf("missing access token header")
		}
		json.NewEncoder(w).Encode(types.Order{ID: "abc123", Number: 1042})
	})

	order, err := client.GetOrder(context.Background(), 51472, Credentials{AccessToken: "tok"}, "abc123")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.ID != "abc123" || order.Number != 1042 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error": "not found"}`)
	})

	_, err := client.GetProduct(context.Background(), 1, Credentials{}, "p1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestPatchOrderShippingLine(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/orders/abc/shipping_lines/sl1.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.PatchOrder(context.Background(), 1, Credentials{}, "abc", "shipping_lines/sl1", map[string]any{
		"tracking_codes": []types.TrackingCode{{Code: "BR1"}},
	})
	if err != nil {
		t.Fatalf("PatchOrder: %v", err)
	}
	if gotBody["tracking_codes"] == nil {
		t.Fatalf("expected tracking codes in body, got %v", gotBody)
	}
}

func TestUnauthorizedMapped(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.PostOrderResource(context.Background(), 1, Credentials{}, "abc", "hidden_metafields", map[string]any{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
