package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	arbiterservice "strangler/contexts/migration-control/arbiter-service"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/ports"
	arbiterhttp "strangler/contexts/migration-control/arbiter-service/transport/http"
)

func newTestServer(t *testing.T) (*Server, arbiterservice.Module) {
	t.Helper()
	module := arbiterservice.NewInMemoryModule(nil, nil, nil)
	if err := module.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(module, nil, ":0"), module
}

func serve(server *Server, method string, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rr := serve(server, http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp arbiterhttp.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("unexpected health status %q", resp.Status)
	}
}

func TestStatusReturnsSeededDefaults(t *testing.T) {
	server, _ := newTestServer(t)

	rr := serve(server, http.MethodGet, "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp arbiterhttp.StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
	data := resp.Data
	if data.ConsistencyScore != 100 || data.TotalTransactions != 0 {
		t.Fatalf("unexpected counters: %+v", data)
	}
	if data.MigrationStatus != "pending" || data.LastDecision != "none" {
		t.Fatalf("unexpected status fields: %+v", data)
	}
	if data.PHPWeight != 0 || data.PythonWeight != 0 || len(data.Weights) != 2 {
		t.Fatalf("unexpected weights: %+v", data)
	}
	if data.Scopes != nil {
		t.Fatalf("combined mode must not expose scopes")
	}
}

func TestStatusReflectsIngestedComparisons(t *testing.T) {
	server, module := newTestServer(t)
	ctx := context.Background()

	for _, payload := range []string{
		`{"transaction_id":"tx-1","legacy_status":200,"modern_status":200}`,
		`{"transaction_id":"tx-2","legacy_status":200,"modern_status":500}`,
	} {
		if err := module.ComparisonConsumer.Handle(ctx, ports.Message{Value: []byte(payload)}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	rr := serve(server, http.MethodGet, "/status")
	var resp arbiterhttp.StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TotalTransactions != 2 || resp.Data.MatchedTransactions != 1 || resp.Data.ConsistencyScore != 50 {
		t.Fatalf("unexpected counters: %+v", resp.Data)
	}

	rr = serve(server, http.MethodGet, "/mismatches")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var mismatches arbiterhttp.ListMismatchesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &mismatches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mismatches.Items) != 1 || mismatches.Items[0].TransactionID != "tx-2" || mismatches.Items[0].Kind != "http_status" {
		t.Fatalf("unexpected mismatches: %+v", mismatches.Items)
	}
}

func TestResetZeroesStateAndRouter(t *testing.T) {
	server, module := newTestServer(t)
	ctx := context.Background()

	if _, err := module.Store.IncrementCounters(ctx, []entities.CounterScope{entities.ScopeCombined}, false); err != nil {
		t.Fatalf("increment: %v", err)
	}

	rr := serve(server, http.MethodPost, "/reset")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp arbiterhttp.ResetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.RouterFailures) != 0 {
		t.Fatalf("unexpected reset response: %+v", resp)
	}

	calls := module.Router.Calls()
	if len(calls) != 2 || calls[0].Weight != 0 || calls[1].Weight != 0 {
		t.Fatalf("expected both services zeroed, got %+v", calls)
	}
	counters, err := module.Store.Counters(ctx, entities.ScopeCombined)
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	if counters.Total != 0 {
		t.Fatalf("expected counters cleared, got %+v", counters)
	}
}

func TestResetReportsRouterFailures(t *testing.T) {
	server, module := newTestServer(t)
	module.Router.SetFailing(true)

	rr := serve(server, http.MethodPost, "/reset")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp arbiterhttp.ResetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.RouterFailures) != 2 {
		t.Fatalf("expected both router failures reported, got %+v", resp.RouterFailures)
	}
}

func TestListEndpointsValidateLimit(t *testing.T) {
	server, _ := newTestServer(t)

	for _, target := range []string{
		"/mismatches?limit=abc",
		"/mismatches?limit=0",
		"/rollbacks?limit=101",
	} {
		rr := serve(server, http.MethodGet, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
		var resp arbiterhttp.ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != "invalid_limit" {
			t.Fatalf("%s: unexpected error code %q", target, resp.Code)
		}
	}

	rr := serve(server, http.MethodGet, "/rollbacks?limit=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestResetRequiresPost(t *testing.T) {
	server, _ := newTestServer(t)

	rr := serve(server, http.MethodGet, "/reset")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
