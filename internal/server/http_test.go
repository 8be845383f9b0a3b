package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/service"
)

const testToken = "test-token"

// fakeService returns canned results and records what it was given.
type fakeService struct {
	configs   []model.CorrelationConfig
	getErr    error
	result    *service.UpdateResult
	updateErr error

	updated []model.CorrelationConfig
	callers []auth.Caller
}

func (f *fakeService) GetConfigs(ctx context.Context) ([]model.CorrelationConfig, error) {
	c, _ := auth.CallerFrom(ctx)
	f.callers = append(f.callers, c)
	return f.configs, f.getErr
}

func (f *fakeService) UpdateConfigs(ctx context.Context, configs []model.CorrelationConfig) (*service.UpdateResult, error) {
	c, _ := auth.CallerFrom(ctx)
	f.callers = append(f.callers, c)
	f.updated = configs
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.result == nil {
		return &service.UpdateResult{Committed: true}, nil
	}
	return f.result, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testTokens() auth.TokenTable {
	return auth.TokenTable{testToken: {Username: "admin", Tenant: "carbon.super"}}
}

func newTestHandler(svc ConfigService, pinger Pinger) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(svc, pinger, logger).NewHTTPHandler(testTokens())
}

// doJSON sends an authenticated request with an optional JSON body.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

var jdbcBody = model.ConfigList{Components: []model.CorrelationConfig{
	{Component: model.ComponentJDBC, Enabled: "true", Properties: []model.CorrelationConfigProperty{
		{Name: model.PropertyDeniedThreads, Value: []string{"PoolA", "PoolB"}},
	}},
}}

func TestHandleGetCorrelation(t *testing.T) {
	svc := &fakeService{configs: model.DefaultConfigs()}
	h := newTestHandler(svc, nil)

	rec := doJSON(t, h, "GET", CorrelationPath, nil)
	requireStatus(t, rec, http.StatusOK)

	var got model.ConfigList
	decodeJSON(t, rec, &got)
	if len(got.Components) != 5 {
		t.Fatalf("expected 5 components, got %d", len(got.Components))
	}
	if got.Components[3].Component != model.ComponentJDBC {
		t.Fatalf("expected jdbc at index 3, got %s", got.Components[3].Component)
	}
	if svc.callers[0].Username != "admin" {
		t.Fatalf("expected caller admin from token, got %+v", svc.callers[0])
	}
}

func TestHandlePutCorrelation(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc, nil)

	rec := doJSON(t, h, "PUT", CorrelationPath, jdbcBody)
	requireStatus(t, rec, http.StatusOK)
	if rec.Header().Get(NotifyWarningHeader) != "" {
		t.Fatalf("unexpected notify warning header")
	}

	var got model.ConfigList
	decodeJSON(t, rec, &got)
	if len(got.Components) != 1 || got.Components[0].Component != model.ComponentJDBC {
		t.Fatalf("expected request echoed back, got %+v", got)
	}
	if len(svc.updated) != 1 {
		t.Fatalf("expected 1 config passed to service, got %d", len(svc.updated))
	}
}

func TestHandlePutCorrelation_NilPropertiesBecomeEmpty(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc, nil)

	body := map[string]any{"components": []map[string]any{{"name": "http", "enabled": "true"}}}
	rec := doJSON(t, h, "PUT", CorrelationPath, body)
	requireStatus(t, rec, http.StatusOK)
	if svc.updated[0].Properties == nil {
		t.Fatal("expected empty, non-nil properties")
	}
}

func TestHandlePutCorrelation_InvalidComponent(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc, nil)

	body := map[string]any{"components": []map[string]any{
		{"name": "http", "enabled": "true"},
		{"name": "kafka", "enabled": "true"},
	}}
	rec := doJSON(t, h, "PUT", CorrelationPath, body)
	requireStatus(t, rec, http.StatusBadRequest)

	var eb model.ErrorBody
	decodeJSON(t, rec, &eb)
	if eb.Code != 400 || eb.Message != "Bad Request" {
		t.Fatalf("unexpected error body: %+v", eb)
	}
	if eb.Description != "Invalid Component Name: kafka. " {
		t.Fatalf("unexpected description: %q", eb.Description)
	}
	if eb.MoreInfo != "The valid component names : [http, ldap, synapse, jdbc, method-calls]" {
		t.Fatalf("unexpected moreInfo: %q", eb.MoreInfo)
	}
	if svc.callers != nil {
		t.Fatal("service must not be called for an invalid component name")
	}
}

func TestHandlePutCorrelation_NotifyWarning(t *testing.T) {
	svc := &fakeService{result: &service.UpdateResult{
		Committed: true,
		NotifyErr: &model.NotifyError{Err: errors.New("nats: no servers")},
	}}
	h := newTestHandler(svc, nil)

	rec := doJSON(t, h, "PUT", CorrelationPath, jdbcBody)
	requireStatus(t, rec, http.StatusOK)
	if rec.Header().Get(NotifyWarningHeader) == "" {
		t.Fatal("expected notify warning header")
	}
}

func TestHandleHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		method   string
		svc      *fakeService
		body     any
		code     int
		wantDesc string
	}{
		{"Get/PermissionDenied", "GET", &fakeService{getErr: &model.PermissionDeniedError{User: "bob", Permission: "apim:admin"}}, nil, 403, "permission denied"},
		{"Get/Persistence", "GET", &fakeService{getErr: &model.PersistenceError{Op: "retrieve", Err: errors.New("conn refused")}}, nil, 500, "Failed to retrieve the correlation configs"},
		{"Put/PermissionDenied", "PUT", &fakeService{updateErr: &model.PermissionDeniedError{User: "bob", Permission: "apim:admin"}}, jdbcBody, 403, "permission denied"},
		{"Put/PropertyNotSupported", "PUT", &fakeService{updateErr: &model.PropertyNotSupportedError{Component: model.ComponentHTTP, Property: "deniedThreads"}}, jdbcBody, 400, "does not have"},
		{"Put/InvalidValue", "PUT", &fakeService{updateErr: &model.InvalidPropertyValueError{Component: model.ComponentJDBC, Property: "deniedThreads", Reason: "must not be empty"}}, jdbcBody, 400, "must not be empty"},
		{"Put/Persistence", "PUT", &fakeService{updateErr: &model.PersistenceError{Op: "update", Err: errors.New("secret dsn detail")}}, jdbcBody, 500, "Failed to update the correlation configs"},
		{"Put/NotCommitted", "PUT", &fakeService{result: &service.UpdateResult{}}, jdbcBody, 500, "Failed to update the correlation configs"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(tc.svc, nil)
			rec := doJSON(t, h, tc.method, CorrelationPath, tc.body)
			requireStatus(t, rec, tc.code)

			var eb model.ErrorBody
			decodeJSON(t, rec, &eb)
			if eb.Code != int64(tc.code) {
				t.Fatalf("expected code %d in body, got %d", tc.code, eb.Code)
			}
			if !strings.Contains(eb.Description, tc.wantDesc) {
				t.Fatalf("expected description containing %q, got %q", tc.wantDesc, eb.Description)
			}
			if strings.Contains(eb.Description, "secret dsn detail") {
				t.Fatal("persistence detail leaked to client")
			}
		})
	}
}

func TestHandlePutCorrelation_BadBody(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)

	req := httptest.NewRequest("PUT", CorrelationPath, strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleHealth(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		h := newTestHandler(&fakeService{}, fakePinger{})
		req := httptest.NewRequest("GET", HealthPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("StoreDown", func(t *testing.T) {
		h := newTestHandler(&fakeService{}, fakePinger{err: errors.New("db down")})
		req := httptest.NewRequest("GET", HealthPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		requireStatus(t, rec, http.StatusServiceUnavailable)
	})
}

func TestHandler_RequiresToken(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)
	req := httptest.NewRequest("GET", CorrelationPath, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestHandler_RequestID(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)

	rec := doJSON(t, h, "GET", CorrelationPath, nil)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest("GET", HealthPath, nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected incoming request id echoed, got %q", got)
	}
}
