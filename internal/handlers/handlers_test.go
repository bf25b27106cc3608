package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finbrief/daily-brief/internal/config"
	"github.com/finbrief/daily-brief/internal/pipeline"
	"github.com/finbrief/daily-brief/internal/report"
	"github.com/finbrief/daily-brief/internal/runlog"
	"github.com/finbrief/daily-brief/internal/search"
)

type stubAggregator struct {
	results search.ResultSet
	err     error
}

func (a *stubAggregator) Aggregate(ctx context.Context, query string) (search.ResultSet, []error, error) {
	return a.results, nil, a.err
}

type stubGenerator struct{}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "Markets closed mixed; reported gains in tech offset energy losses.", nil
}

type stubRenderer struct{}

func (r *stubRenderer) Render(ctx context.Context, artifact *report.Artifact) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

type stubDeliverer struct {
	calls int
}

func (d *stubDeliverer) SendDocument(ctx context.Context, document []byte, filename, caption string) error {
	d.calls++
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Query:                 "US markets today",
		ProviderOrder:         []string{"serper"},
		MaxResults:            5,
		LLMModel:              "gpt-4o-mini",
		CanonicalLanguage:     "en",
		TargetLanguages:       []string{"ar", "hi", "he"},
		LanguageNames:         map[string]string{"en": "English", "ar": "Arabic", "hi": "Hindi", "he": "Hebrew"},
		TopResults:            6,
		MaxImages:             2,
		SummaryRetries:        0,
		MaxConcurrentRequests: 3,
		RequestTimeoutSeconds: 5,
		RunHistoryHours:       72,
	}
}

func testServer(deliverer pipeline.Deliverer) *Server {
	return &Server{
		config: testConfig(),
		aggregator: &stubAggregator{results: search.ResultSet{
			{Title: "Stocks rally", URL: "http://example.com/1", Snippet: "Tech leads gains"},
			{Title: "Oil slides", URL: "http://example.com/2", Snippet: "Crude fell 2%"},
		}},
		generator: &stubGenerator{},
		renderer:  &stubRenderer{},
		deliverer: deliverer,
		runLog:    runlog.NewMemoryStore(72 * time.Hour),
	}
}

func TestHealthHandler(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", body["status"])
	}
}

func TestRunHandler(t *testing.T) {
	deliverer := &stubDeliverer{}
	server := testServer(deliverer)
	router := server.SetupRoutes()

	req := httptest.NewRequest("POST", "/api/v1/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("Expected success true, got %v (failures %v)", body["success"], body["failures"])
	}
	if body["delivered"] != true {
		t.Errorf("Expected delivered true, got %v", body["delivered"])
	}
	if body["sections"] != float64(4) {
		t.Errorf("Expected 4 sections, got %v", body["sections"])
	}
	if deliverer.calls != 1 {
		t.Errorf("Expected 1 delivery call, got %d", deliverer.calls)
	}
}

func TestRunHandlerConflict(t *testing.T) {
	server := testServer(&stubDeliverer{})
	router := server.SetupRoutes()

	server.runLog.Record(context.Background(), runlog.Entry{
		RunID:     "earlier",
		StartedAt: time.Now(),
		Success:   true,
	})

	req := httptest.NewRequest("POST", "/api/v1/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestRunHandlerForceOverridesGuard(t *testing.T) {
	server := testServer(&stubDeliverer{})
	router := server.SetupRoutes()

	server.runLog.Record(context.Background(), runlog.Entry{
		RunID:     "earlier",
		StartedAt: time.Now(),
		Success:   true,
	})

	req := httptest.NewRequest("POST", "/api/v1/run?force=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 with force, got %d", rec.Code)
	}
}

func TestRunsHandler(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	server.runLog.Record(context.Background(), runlog.Entry{RunID: "run-1", Success: true})
	server.runLog.Record(context.Background(), runlog.Entry{RunID: "run-2", Success: false})

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", body["count"])
	}
}

func TestLatestRunHandlerNotFound(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/api/v1/runs/latest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestSearchPreviewHandler(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	payload := bytes.NewBufferString(`{"query": "NASDAQ earnings"}`)
	req := httptest.NewRequest("POST", "/api/v1/search/preview", payload)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["query"] != "NASDAQ earnings" {
		t.Errorf("Expected echoed query, got '%v'", body["query"])
	}
	if body["count"] != float64(2) {
		t.Errorf("Expected 2 results, got %v", body["count"])
	}
}

func TestSearchPreviewHandlerDefaultsQuery(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	payload := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest("POST", "/api/v1/search/preview", payload)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&body)
	if body["query"] != server.config.Query {
		t.Errorf("Expected configured query fallback, got '%v'", body["query"])
	}
}

func TestStatusHandler(t *testing.T) {
	server := testServer(nil)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["delivery_enabled"] != false {
		t.Errorf("Expected delivery_enabled false, got %v", body["delivery_enabled"])
	}
	if body["canonical_language"] != "en" {
		t.Errorf("Expected canonical language 'en', got '%v'", body["canonical_language"])
	}
}

func TestConfigHandlerSanitized(t *testing.T) {
	server := testServer(nil)
	server.config.SerperAPIKey = "secret-serper"
	server.config.LLMAPIKey = "secret-llm"
	server.config.TelegramBotToken = "secret-token"
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	raw := rec.Body.String()
	for _, secret := range []string{"secret-serper", "secret-llm", "secret-token"} {
		if bytes.Contains([]byte(raw), []byte(secret)) {
			t.Errorf("Expected '%s' to be absent from config response", secret)
		}
	}
}

func TestBuildProvidersSkipsMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.ProviderOrder = []string{"serper", "tavily"}
	cfg.TavilyAPIKey = "tavily-key"

	providers, err := buildProviders(cfg)
	if err != nil {
		t.Fatalf("buildProviders failed: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("Expected 1 provider, got %d", len(providers))
	}
	if providers[0].Name() != "tavily" {
		t.Errorf("Expected 'tavily', got '%s'", providers[0].Name())
	}
}

func TestBuildProvidersNoCredentials(t *testing.T) {
	cfg := testConfig()

	_, err := buildProviders(cfg)
	if err == nil {
		t.Error("Expected error when no provider has credentials")
	}
}
