package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricing-health/internal/pricing"
)

type fakeComputer struct {
	res *pricing.Result
	err error
}

func (f *fakeComputer) Compute(context.Context, string, string) (*pricing.Result, error) {
	return f.res, f.err
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error {
	return f.err
}

func testResult() *pricing.Result {
	review := false
	return &pricing.Result{
		Item:   "WIDGET-1",
		Cutoff: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Rows: []pricing.Row{
			{
				ContractNumber:  "C1",
				ContractName:    "Acme",
				ContractStart:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				ContractEnd:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				AgreementPrice:  decimal.RequireFromString("100"),
				Item:            "WIDGET-1",
				Cost:            decimal.NewNullDecimal(decimal.RequireFromString("40")),
				CustomerFeeRate: decimal.RequireFromString("0.05"),
				Safety:          decimal.NewNullDecimal(decimal.RequireFromString("2")),
				CustomerFee:     decimal.RequireFromString("5"),
				TotalCost:       decimal.NewNullDecimal(decimal.RequireFromString("47")),
				GP:              decimal.NewNullDecimal(decimal.RequireFromString("53")),
				GPPct:           decimal.NewNullDecimal(decimal.RequireFromString("53")),
				Review:          &review,
			},
		},
	}
}

func newTestServer(computer pricing.Computer) *Server {
	return New(computer, &fakePinger{}, zap.NewNop())
}

func TestHandlePricing(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})

	req := httptest.NewRequest("GET", "/api/pricing?item=WIDGET-1&cutoff=2024-01-01", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp PricingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Rows) != 1 || resp.Rows[0].ContractNumber != "C1" {
		t.Errorf("Unexpected rows: %+v", resp.Rows)
	}
	if len(resp.ExpiringByDate) != 1 || resp.ExpiringByDate[0].Contracts != 1 {
		t.Errorf("Unexpected chart groups: %+v", resp.ExpiringByDate)
	}
}

func TestHandlePricingMissingParams(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})

	req := httptest.NewRequest("GET", "/api/pricing?item=WIDGET-1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestHandlePricingInvalidDate(t *testing.T) {
	srv := newTestServer(&fakeComputer{err: pricing.ErrInvalidDate})

	req := httptest.NewRequest("GET", "/api/pricing?item=WIDGET-1&cutoff=01/01/2024", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_DATE") {
		t.Errorf("Expected INVALID_DATE error code, got %s", rec.Body)
	}
}

func TestHandlePricingPipelineError(t *testing.T) {
	srv := newTestServer(&fakeComputer{err: errors.New("store down")})

	req := httptest.NewRequest("GET", "/api/pricing?item=WIDGET-1&cutoff=2024-01-01", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
}

func TestHandleExport(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})

	req := httptest.NewRequest("GET", "/api/pricing/export?item=WIDGET-1&cutoff=2024-01-01", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Unexpected content type %q", ct)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "Item WIDGET-1 - Expiring after 2024-01-01.xlsx") {
		t.Errorf("Unexpected disposition %q", disposition)
	}
	if rec.Body.Len() == 0 {
		t.Error("Empty export body")
	}
}

func TestHandleFilter(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})

	body := `{"item":"WIDGET-1","cutoff":"2024-01-01","selections":[{"column":"contractname","values":["Nobody"]}]}`
	req := httptest.NewRequest("POST", "/api/pricing/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Rows) != 0 {
		t.Errorf("Expected all rows filtered out, got %d", len(resp.Rows))
	}
	if len(resp.Columns) == 0 {
		t.Error("Filtered table lost its columns")
	}
}

func TestHandleFilterUnknownColumn(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})

	body := `{"item":"WIDGET-1","cutoff":"2024-01-01","selections":[{"column":"nope"}]}`
	req := httptest.NewRequest("POST", "/api/pricing/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeComputer{res: testResult()})
	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	down := New(&fakeComputer{}, &fakePinger{err: errors.New("no route")}, zap.NewNop())
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}
