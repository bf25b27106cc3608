package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"github.com/finbrief/daily-brief/internal/config"
	"github.com/finbrief/daily-brief/internal/llm"
	"github.com/finbrief/daily-brief/internal/pipeline"
	"github.com/finbrief/daily-brief/internal/report"
	"github.com/finbrief/daily-brief/internal/runlog"
	"github.com/finbrief/daily-brief/internal/search"
	"github.com/finbrief/daily-brief/internal/summary"
	"github.com/finbrief/daily-brief/internal/telegram"
)

// ErrAlreadyRan indicates a successful run already happened today and
// the force flag was not set.
var ErrAlreadyRan = errors.New("a successful run was already recorded today")

// Server holds the HTTP server and its dependencies
type Server struct {
	config     *config.Config
	aggregator pipeline.Aggregator
	generator  llm.Generator
	renderer   pipeline.Renderer
	deliverer  pipeline.Deliverer
	runLog     runlog.Store
}

// NewServer creates a new HTTP server wired from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, fmt.Errorf("building search providers: %w", err)
	}

	server := &Server{
		config:     cfg,
		aggregator: search.NewAggregator(providers...),
		generator:  llm.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.RequestTimeout()),
		renderer:   report.NewRenderer(cfg.FontFile, cfg.RequestTimeout()),
		runLog:     runlog.NewMemoryStore(time.Duration(cfg.RunHistoryHours) * time.Hour),
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChannelID != "" {
		server.deliverer = telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChannelID, cfg.RequestTimeout())
	} else {
		log.Println("telegram credentials not set, delivery disabled")
	}

	return server, nil
}

// buildProviders instantiates the configured providers in priority order,
// skipping providers without credentials.
func buildProviders(cfg *config.Config) ([]search.Provider, error) {
	var providers []search.Provider

	for _, name := range cfg.ProviderOrder {
		switch name {
		case "serper":
			if cfg.SerperAPIKey != "" {
				providers = append(providers, search.NewSerperClient(cfg.SerperAPIKey, cfg.MaxResults, cfg.RequestTimeout()))
			}
		case "tavily":
			if cfg.TavilyAPIKey != "" {
				providers = append(providers, search.NewTavilyClient(cfg.TavilyAPIKey, cfg.MaxResults, cfg.RequestTimeout()))
			}
		default:
			return nil, fmt.Errorf("unknown search provider: %s", name)
		}
	}

	if len(providers) == 0 {
		return nil, errors.New("no search provider has credentials")
	}

	return providers, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.corsMiddleware)
	api.Use(s.loggingMiddleware)

	// Health check
	api.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Pipeline operations
	api.HandleFunc("/run", s.runHandler).Methods("POST")
	api.HandleFunc("/runs", s.runsHandler).Methods("GET")
	api.HandleFunc("/runs/latest", s.latestRunHandler).Methods("GET")

	// Search preview
	api.HandleFunc("/search/preview", s.searchPreviewHandler).Methods("POST")

	// Status and configuration
	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/config", s.configHandler).Methods("GET")

	return r
}

// ProcessAndDeliver executes one pipeline run, persists the document and
// records the outcome. With force=false a successful run earlier the same
// day short-circuits with ErrAlreadyRan.
func (s *Server) ProcessAndDeliver(ctx context.Context, force bool) (*pipeline.RunResult, error) {
	if !force {
		startOfDay := startOfToday()
		ran, err := s.runLog.RanSince(ctx, startOfDay)
		if err != nil {
			return nil, fmt.Errorf("checking run ledger: %w", err)
		}
		if ran {
			return nil, ErrAlreadyRan
		}
	}

	log.Println("Starting daily brief pipeline run...")

	runner := pipeline.NewRunner(pipeline.Deps{
		Aggregator: s.aggregator,
		Summarizer: summary.NewGenerator(s.generator, s.config.TopResults, s.config.CanonicalLanguage),
		Translator: summary.NewFanout(s.generator, s.config.LanguageNames, s.config.MaxConcurrentRequests),
		Assembler:  report.NewAssembler(s.config.TargetLanguages, s.config.LanguageNames),
		Renderer:   s.renderer,
		Deliverer:  s.deliverer,
	}, pipeline.Params{
		Query:           s.config.Query,
		TargetLanguages: s.config.TargetLanguages,
		MaxImages:       s.config.MaxImages,
		SummaryRetries:  s.config.SummaryRetries,
	})

	result := runner.Run(ctx)

	if result.Document != nil && s.config.OutputDir != "" {
		path := filepath.Join(s.config.OutputDir, result.Filename)
		if err := os.WriteFile(path, result.Document, 0o644); err != nil {
			log.Printf("Error writing document to %s: %v", path, err)
		} else {
			log.Printf("Document written to %s", path)
		}
	}

	if err := s.runLog.Record(ctx, runlog.FromResult(result)); err != nil {
		log.Printf("Error recording run: %v", err)
	}

	log.Printf("Run %s finished: state=%s success=%t delivered=%t failures=%d",
		result.RunID, result.FinalState, result.Success, result.Delivered, len(result.Failures))

	return result, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
