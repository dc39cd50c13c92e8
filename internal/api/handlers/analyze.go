// Package handlers implements the HTTP handlers for the audit API.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/pkg/httputil"
)

// AuditService runs page audits.
type AuditService interface {
	Analyze(ctx context.Context, rawURL string, opts analyzer.Options) (*domain.AuditReport, error)
	AnalyzeModule(ctx context.Context, rawURL string, module domain.Module, opts analyzer.Options) (*domain.ModuleResult, error)
}

// ReportWriter persists audit reports.
type ReportWriter interface {
	Save(ctx context.Context, report *domain.AuditReport) error
}

// AnalyzeHandler handles audit requests
type AnalyzeHandler struct {
	auditor AuditService
	reports ReportWriter
	logger  *zap.Logger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(auditor AuditService, reports ReportWriter, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{auditor: auditor, reports: reports, logger: logger}
}

type analyzeRequest struct {
	URL           string `json:"url"`
	EmulateMobile bool   `json:"emulateMobile"`
	ReducedCost   bool   `json:"reducedCost"`
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if req.URL == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("url", "url is required"))
		return
	}

	report, err := h.auditor.Analyze(r.Context(), req.URL, analyzer.Options{
		EmulateMobile: req.EmulateMobile,
		ReducedCost:   req.ReducedCost,
	})
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if h.reports != nil {
		if err := h.reports.Save(r.Context(), report); err != nil {
			// The report is still returned; only follow-up lookups are lost.
			h.logger.Warn("saving audit report failed",
				zap.String("report_id", report.ID.String()),
				zap.Error(err))
		}
	}

	httputil.JSON(w, http.StatusOK, report)
}

// AnalyzeModule handles POST /api/analyze/{module}
func (h *AnalyzeHandler) AnalyzeModule(w http.ResponseWriter, r *http.Request) {
	module := domain.Module(chi.URLParam(r, "module"))

	var req analyzeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if req.URL == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("url", "url is required"))
		return
	}

	result, err := h.auditor.AnalyzeModule(r.Context(), req.URL, module, analyzer.Options{
		EmulateMobile: req.EmulateMobile,
		ReducedCost:   req.ReducedCost,
	})
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
