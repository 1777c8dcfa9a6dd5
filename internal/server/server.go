// Package server is the thin HTTP layer over the pricing pipeline. It
// only ingests parameters, orchestrates the pipeline and serializes
// output; no pricing logic lives here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pricing-health/internal/export"
	"pricing-health/internal/pricing"
	"pricing-health/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger reports backing-store reachability for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	mux      *http.ServeMux
	pipeline pricing.Computer
	store    Pinger
	logger   *zap.Logger
}

func New(pipeline pricing.Computer, store Pinger, logger *zap.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		pipeline: pipeline,
		store:    store,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/pricing", s.handlePricing)
	s.mux.HandleFunc("GET /api/pricing/export", s.handleExport)
	s.mux.HandleFunc("POST /api/pricing/filter", s.handleFilter)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// PricingResponse carries the derived rows, any degradation warnings and
// the per-expiry-date counts behind the dashboard chart
type PricingResponse struct {
	Item           string                `json:"item"`
	Cutoff         string                `json:"cutoff"`
	Rows           []pricing.Row         `json:"rows"`
	Warnings       []pricing.Warning     `json:"warnings,omitempty"`
	ExpiringByDate []pricing.ExpiryCount `json:"expiring_by_date"`
	DurationMs     int64                 `json:"duration_ms"`
}

// FilterRequest recomputes a result and narrows its table with generic
// column selections
type FilterRequest struct {
	Item       string            `json:"item"`
	Cutoff     string            `json:"cutoff"`
	Selections []table.Selection `json:"selections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, "STORE_UNREACHABLE", err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handlePricing handles GET /api/pricing?item=&cutoff=
func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	item, cutoff, ok := s.requireParams(w, r)
	if !ok {
		return
	}

	res, ok := s.compute(w, r, item, cutoff)
	if !ok {
		return
	}

	s.writeJSON(w, &PricingResponse{
		Item:           item,
		Cutoff:         cutoff,
		Rows:           res.Rows,
		Warnings:       res.Warnings,
		ExpiringByDate: res.GroupByContractEnd(),
		DurationMs:     time.Since(start).Milliseconds(),
	}, http.StatusOK)
}

// handleExport handles GET /api/pricing/export?item=&cutoff= and always
// encodes the unfiltered pipeline result.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	item, cutoff, ok := s.requireParams(w, r)
	if !ok {
		return
	}

	res, ok := s.compute(w, r, item, cutoff)
	if !ok {
		return
	}

	data, err := export.Encode(res.Table())
	if err != nil {
		s.logger.Error("Failed to encode workbook", zap.Error(err))
		s.writeError(w, "EXPORT_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(item, cutoff)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write export response", zap.Error(err))
	}
}

// handleFilter handles POST /api/pricing/filter
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Item == "" || req.Cutoff == "" {
		s.writeError(w, "MISSING_PARAMETER", "item and cutoff are required", http.StatusBadRequest)
		return
	}

	res, ok := s.compute(w, r, req.Item, req.Cutoff)
	if !ok {
		return
	}

	filtered, err := table.Filter(res.Table(), req.Selections)
	if err != nil {
		s.writeError(w, "INVALID_FILTER", err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, filtered, http.StatusOK)
}

func (s *Server) requireParams(w http.ResponseWriter, r *http.Request) (item, cutoff string, ok bool) {
	item = r.URL.Query().Get("item")
	cutoff = r.URL.Query().Get("cutoff")
	if item == "" || cutoff == "" {
		s.writeError(w, "MISSING_PARAMETER", "item and cutoff are required", http.StatusBadRequest)
		return "", "", false
	}
	return item, cutoff, true
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request, item, cutoff string) (*pricing.Result, bool) {
	res, err := s.pipeline.Compute(r.Context(), item, cutoff)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidDate) {
			s.writeError(w, "INVALID_DATE", err.Error(), http.StatusBadRequest)
			return nil, false
		}
		s.logger.Error("Pipeline failed",
			zap.String("item", item),
			zap.String("cutoff", cutoff),
			zap.Error(err))
		s.writeError(w, "PIPELINE_ERROR", err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return res, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}, status)
}
