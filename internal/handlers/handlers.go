package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "v1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// runHandler triggers one pipeline run. ?force=true overrides the
// once-per-day guard.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	force := r.URL.Query().Get("force") == "true"

	result, err := s.ProcessAndDeliver(ctx, force)
	if err != nil {
		if errors.Is(err, ErrAlreadyRan) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, fmt.Sprintf("Error running pipeline: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"run_id":      result.RunID,
		"success":     result.Success,
		"delivered":   result.Delivered,
		"final_state": result.FinalState,
		"filename":    result.Filename,
		"failures":    result.Failures,
	}
	if result.Artifact != nil {
		response["sections"] = len(result.Artifact.Sections)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// runsHandler returns the retained run history
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := s.runLog.List(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error listing runs: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"runs":  entries,
		"count": len(entries),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// latestRunHandler returns the most recent run entry
func (s *Server) latestRunHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := s.runLog.Latest(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting latest run: %v", err), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// searchPreviewHandler runs aggregation alone, without the rest of the
// pipeline, so the merged result set can be inspected.
func (s *Server) searchPreviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	query := req.Query
	if query == "" {
		query = s.config.Query
	}

	results, providerErrors, err := s.aggregator.Aggregate(ctx, query)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error aggregating results: %v", err), http.StatusBadGateway)
		return
	}

	errorMessages := make([]string, 0, len(providerErrors))
	for _, perr := range providerErrors {
		errorMessages = append(errorMessages, perr.Error())
	}

	response := map[string]interface{}{
		"query":           query,
		"results":         results,
		"count":           len(results),
		"provider_errors": errorMessages,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// statusHandler returns system status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, _ := s.runLog.Stats(ctx)

	response := map[string]interface{}{
		"status":             "running",
		"version":            "v1.0.0",
		"runs":               stats,
		"delivery_enabled":   s.deliverer != nil,
		"target_languages":   s.config.TargetLanguages,
		"canonical_language": s.config.CanonicalLanguage,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// configHandler returns configuration (sanitized)
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	// Return sanitized configuration without sensitive data
	response := map[string]interface{}{
		"query":                   s.config.Query,
		"provider_order":          s.config.ProviderOrder,
		"max_results":             s.config.MaxResults,
		"llm_model":               s.config.LLMModel,
		"canonical_language":      s.config.CanonicalLanguage,
		"target_languages":        s.config.TargetLanguages,
		"language_names":          s.config.LanguageNames,
		"top_results":             s.config.TopResults,
		"max_images":              s.config.MaxImages,
		"summary_retries":         s.config.SummaryRetries,
		"max_concurrent_requests": s.config.MaxConcurrentRequests,
		"request_timeout_seconds": s.config.RequestTimeoutSeconds,
		"run_history_hours":       s.config.RunHistoryHours,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
