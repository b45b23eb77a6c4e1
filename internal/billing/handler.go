// AngelaMos | 2026
// handler.go

package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
	"github.com/imotor-app/marketplace-api/internal/middleware"
)

type Handler struct {
	client       *Client
	entitlements *entitlement.Service
	validator    *validator.Validate
}

func NewHandler(client *Client, entitlements *entitlement.Service) *Handler {
	return &Handler{
		client:       client,
		entitlements: entitlements,
		validator:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/billing", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/checkout-session", h.CreateCheckoutSession)
		r.Get("/session-status", h.SessionStatus)
		r.Get("/entitlements", h.Entitlements)
	})
}

type CreateCheckoutSessionRequest struct {
	Price    string `json:"price" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gte=0,lte=100"`
}

func (h *Handler) CreateCheckoutSession(
	w http.ResponseWriter,
	r *http.Request,
) {
	userID := middleware.GetUserID(r.Context())

	var req CreateCheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rec, err := h.entitlements.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	session, err := h.client.CreateCheckoutSession(
		r.Context(), userID, rec.Email, req.Price, req.Quantity,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, session)
}

func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		core.BadRequest(w, "session_id is required")
		return
	}

	status, err := h.client.GetSessionStatus(r.Context(), sessionID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, status)
}

type EntitlementsResponse struct {
	StandardLimit  int  `json:"standard_limit"`
	FeaturedLimit  int  `json:"featured_limit"`
	PremiumLimit   int  `json:"premium_limit"`
	StandardUsed   int  `json:"standard_used"`
	FeaturedUsed   int  `json:"featured_used"`
	PremiumUsed    int  `json:"premium_used"`
	BundledPackage bool `json:"bundled_package"`
}

func (h *Handler) Entitlements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rec, err := h.entitlements.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, EntitlementsResponse{
		StandardLimit:  rec.StandardLimit,
		FeaturedLimit:  rec.FeaturedLimit,
		PremiumLimit:   rec.PremiumLimit,
		StandardUsed:   rec.StandardUsed,
		FeaturedUsed:   rec.FeaturedUsed,
		PremiumUsed:    rec.PremiumUsed,
		BundledPackage: rec.BundledPackage,
	})
}
