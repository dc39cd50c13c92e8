package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/pkg/httputil"
)

// ComparisonStarter begins the asynchronous competitor pipeline.
type ComparisonStarter interface {
	Start(ctx context.Context, userReport *domain.AuditReport) (*domain.CompetitorComparison, error)
}

// ComparisonReader loads comparison records.
type ComparisonReader interface {
	GetComparison(ctx context.Context, id uuid.UUID) (*domain.CompetitorComparison, error)
	GetLatestByReport(ctx context.Context, userReportID uuid.UUID) (*domain.CompetitorComparison, error)
}

// StatusCache caches comparison statuses so poll loops skip the database.
// May be nil when Redis is unavailable.
type StatusCache interface {
	GetComparisonStatus(ctx context.Context, id uuid.UUID) (domain.ComparisonStatus, error)
	SetComparisonStatus(ctx context.Context, id uuid.UUID, status domain.ComparisonStatus) error
	InvalidateComparison(ctx context.Context, id uuid.UUID) error
}

// CompetitorHandler handles the competitor comparison endpoints
type CompetitorHandler struct {
	pipeline    ComparisonStarter
	reports     ReportReader
	comparisons ComparisonReader
	cache       StatusCache
	logger      *zap.Logger
}

// NewCompetitorHandler creates a new competitor handler
func NewCompetitorHandler(pipeline ComparisonStarter, reports ReportReader, comparisons ComparisonReader, cache StatusCache, logger *zap.Logger) *CompetitorHandler {
	return &CompetitorHandler{
		pipeline:    pipeline,
		reports:     reports,
		comparisons: comparisons,
		cache:       cache,
		logger:      logger,
	}
}

type startComparisonRequest struct {
	UserReportID string `json:"userReportId"`
}

type startComparisonResponse struct {
	ComparisonID uuid.UUID               `json:"comparisonId"`
	Status       domain.ComparisonStatus `json:"status"`
}

// Start handles POST /api/competitor/analyze-3-1. It returns as soon as the
// comparison record exists; the pipeline continues in the background.
func (h *CompetitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startComparisonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if req.UserReportID == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("userReportId", "userReportId is required"))
		return
	}

	reportID, err := uuid.Parse(req.UserReportID)
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ValidationError("userReportId", "invalid report id"))
		return
	}

	userReport, err := h.reports.GetReport(r.Context(), reportID)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	comparison, err := h.pipeline.Start(r.Context(), userReport)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("competitor comparison started",
		zap.String("comparison_id", comparison.ID.String()),
		zap.String("user_report_id", reportID.String()))

	httputil.JSON(w, http.StatusOK, startComparisonResponse{
		ComparisonID: comparison.ID,
		Status:       comparison.Status,
	})
}

// Get handles GET /api/competitor/comparison/{id}
func (h *CompetitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ValidationError("id", "invalid comparison id"))
		return
	}

	comparison, err := h.comparisons.GetComparison(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if h.cache != nil && comparison.Status.IsTerminal() {
		if err := h.cache.InvalidateComparison(r.Context(), id); err != nil {
			h.logger.Debug("failed to invalidate comparison status cache", zap.Error(err))
		}
	}

	httputil.JSON(w, http.StatusOK, comparison)
}

type comparisonStatusResponse struct {
	ComparisonID uuid.UUID               `json:"comparisonId"`
	Status       domain.ComparisonStatus `json:"status"`
}

// Status handles GET /api/competitor/comparison/{id}/status. It serves a
// lightweight body for poll loops, cached for a few seconds.
func (h *CompetitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ValidationError("id", "invalid comparison id"))
		return
	}

	if h.cache != nil {
		status, err := h.cache.GetComparisonStatus(r.Context(), id)
		if err != nil {
			h.logger.Debug("comparison status cache read failed", zap.Error(err))
		} else if status != "" {
			httputil.JSON(w, http.StatusOK, comparisonStatusResponse{ComparisonID: id, Status: status})
			return
		}
	}

	comparison, err := h.comparisons.GetComparison(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if h.cache != nil && !comparison.Status.IsTerminal() {
		if err := h.cache.SetComparisonStatus(r.Context(), id, comparison.Status); err != nil {
			h.logger.Debug("failed to cache comparison status", zap.Error(err))
		}
	}

	httputil.JSON(w, http.StatusOK, comparisonStatusResponse{ComparisonID: comparison.ID, Status: comparison.Status})
}

// GetByReport handles GET /api/competitor/by-report/{reportId}
func (h *CompetitorHandler) GetByReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "reportId"))
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ValidationError("reportId", "invalid report id"))
		return
	}

	comparison, err := h.comparisons.GetLatestByReport(r.Context(), reportID)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comparison)
}
