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

// ReportReader loads stored audit reports.
type ReportReader interface {
	GetReport(ctx context.Context, id uuid.UUID) (*domain.AuditReport, error)
}

// ReportCache is the optional hot cache in front of the report store.
type ReportCache interface {
	GetReport(ctx context.Context, id uuid.UUID) (*domain.AuditReport, error)
	SetReport(ctx context.Context, report *domain.AuditReport) error
}

// ArtifactLinker mints short-lived download links for stored capture
// artifacts. May be nil when object storage is not configured.
type ArtifactLinker interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// ReportHandler serves stored audit reports
type ReportHandler struct {
	store     ReportReader
	cache     ReportCache
	artifacts ArtifactLinker
	logger    *zap.Logger
}

// NewReportHandler creates a new report handler. cache and artifacts may be nil.
func NewReportHandler(store ReportReader, cache ReportCache, artifacts ArtifactLinker, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{store: store, cache: cache, artifacts: artifacts, logger: logger}
}

func (h *ReportHandler) load(r *http.Request) (*domain.AuditReport, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, domain.ValidationError("id", "invalid report id")
	}

	if h.cache != nil {
		if report, err := h.cache.GetReport(r.Context(), id); err == nil && report != nil {
			return report, nil
		}
	}

	report, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetReport(r.Context(), report); err != nil {
			h.logger.Debug("caching report failed", zap.Error(err))
		}
	}

	return report, nil
}

type artifactURLs struct {
	Screenshot string `json:"screenshot,omitempty"`
	HTML       string `json:"html,omitempty"`
}

type reportResponse struct {
	*domain.AuditReport
	ArtifactURLs *artifactURLs `json:"artifactUrls,omitempty"`
}

// Get handles GET /api/report/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.load(r)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reportResponse{
		AuditReport:  report,
		ArtifactURLs: h.linkArtifacts(r.Context(), report),
	})
}

// linkArtifacts swaps stored object keys for presigned download URLs.
func (h *ReportHandler) linkArtifacts(ctx context.Context, report *domain.AuditReport) *artifactURLs {
	if h.artifacts == nil || report.Artifacts == nil {
		return nil
	}

	urls := &artifactURLs{}
	if key := report.Artifacts.ScreenshotKey; key != "" {
		url, err := h.artifacts.PresignedURL(ctx, key)
		if err != nil {
			h.logger.Debug("presigning screenshot failed", zap.Error(err))
		} else {
			urls.Screenshot = url
		}
	}
	if key := report.Artifacts.HTMLKey; key != "" {
		url, err := h.artifacts.PresignedURL(ctx, key)
		if err != nil {
			h.logger.Debug("presigning page html failed", zap.Error(err))
		} else {
			urls.HTML = url
		}
	}

	if urls.Screenshot == "" && urls.HTML == "" {
		return nil
	}
	return urls
}

// GetModule handles GET /api/report/{id}/{module}
func (h *ReportHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	module := domain.Module(chi.URLParam(r, "module"))
	if !module.IsValid() {
		httputil.ErrorFromDomain(w, domain.ValidationError("module", "unknown module"))
		return
	}

	report, err := h.load(r)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	result, ok := report.Modules[module]
	if !ok {
		httputil.ErrorFromDomain(w, domain.NotFoundError("module result", module))
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
