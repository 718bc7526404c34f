package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/platform/logging"
	"github.com/gilangnh/matchday/internal/usecase"
)

// AcquisitionRunner triggers one daily acquisition pass.
type AcquisitionRunner interface {
	Run(ctx context.Context) (usecase.AcquisitionResult, error)
}

// ReconciliationRunner triggers one reconciliation pass.
type ReconciliationRunner interface {
	Run(ctx context.Context) (usecase.ReconcileResult, error)
}

type Handler struct {
	tracking   match.TrackingRepository
	acquire    AcquisitionRunner
	reconcile  ReconciliationRunner
	logger     *logging.Logger
	appVersion string
}

func NewHandler(
	tracking match.TrackingRepository,
	acquire AcquisitionRunner,
	reconcile ReconciliationRunner,
	logger *logging.Logger,
	appVersion string,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		tracking:   tracking,
		acquire:    acquire,
		reconcile:  reconcile,
		logger:     logger,
		appVersion: appVersion,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.appVersion,
	})
}

type trackedMatchResponse struct {
	MatchID    string `json:"matchId"`
	LeagueCode string `json:"leagueCode"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	KickoffUTC string `json:"kickoffUtc"`
}

func (h *Handler) ListTrackedMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTrackedMatches")
	defer span.End()

	records, err := h.tracking.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tracked matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]trackedMatchResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, trackedMatchResponse{
			MatchID:    rec.MatchID,
			LeagueCode: rec.LeagueCode,
			Home:       rec.Home,
			Away:       rec.Away,
			KickoffUTC: rec.KickoffUTC.UTC().Format(time.RFC3339),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"tracked": out})
}

func (h *Handler) RunAcquisitionJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAcquisitionJob")
	defer span.End()

	result, err := h.acquire.Run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual acquisition run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunReconciliationJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconciliationJob")
	defer span.End()

	result, err := h.reconcile.Run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual reconciliation run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
