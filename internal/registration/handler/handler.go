// Package handler exposes the registration endpoints: number assignment,
// form preview, verification and registration lookup.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/registration/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the registration operations the handler depends on.
type Service interface {
	Assign(ctx context.Context, req *models.AssignRequest) (*models.Registration, error)
	Preview(ctx context.Context, req *models.PreviewRequest) (string, error)
	Verify(ctx context.Context, raw string) (*models.Verification, error)
	Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleAssign)
	r.Get("/registrations/{id}", h.HandleGet)
	r.Post("/certificates/preview", h.HandlePreview)
	r.Get("/certificates/{number}", h.HandleVerify)
}

// HandleAssign handles POST /registrations requests.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.AssignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.Assign(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "number assignment failed",
			"request_id", requestID,
			"reference", req.Reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "number assigned",
		"request_id", requestID,
		"registration_id", reg.ID.String(),
		"reference", reg.Reference.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(reg))
}

// HandleGet handles GET /registrations/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Get(ctx, regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandlePreview handles POST /certificates/preview requests. The form
// calls it on every change, so the handler stays quiet in the logs.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.PreviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	encoded, err := h.service.Preview(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PreviewResponse{
		Encoded:  encoded,
		Complete: encoded != "",
	})
}

// HandleVerify handles GET /certificates/{number} requests. Any input
// verifies; malformed numbers come back defaulted rather than erroring,
// so the kiosk always has fields to show.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	verification, err := h.service.Verify(ctx, chi.URLParam(r, "number"))
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromVerification(verification))
}
