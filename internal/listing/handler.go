// AngelaMos | 2026
// handler.go

package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
	"github.com/imotor-app/marketplace-api/internal/middleware"
)

// ImageStore persists an uploaded image file and returns its public path.
type ImageStore interface {
	SaveImage(r *http.Request, field string) (string, error)
}

type Handler struct {
	service   *Service
	images    ImageStore
	validator *validator.Validate
}

func NewHandler(service *Service, images ImageStore) *Handler {
	return &Handler{
		service:   service,
		images:    images,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/listings", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/images", h.ListImages)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/{vehicleType}", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/images", h.AddImage)
			r.Delete("/{id}/images/{imageID}", h.DeleteImage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Patch("/{id}/status", h.UpdateStatus)
			})
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	vehicleType := chi.URLParam(r, "vehicleType")

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	d, err := h.service.Create(r.Context(), userID, vehicleType, req)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	core.Created(w, ToDetailsResponse(d))
}

// writeCreateError maps quota denials onto 403 with the numeric limit in
// the message, which the storefront shows verbatim.
func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	var quotaErr *entitlement.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		core.Forbidden(w, quotaErr.Error())
	case errors.Is(err, entitlement.ErrNoTier):
		core.BadRequest(w, entitlement.ErrNoTier.Error())
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "unknown vehicle type")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "a listing with this VIN already exists")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToDetailsResponse(d))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	// Anonymous traffic only ever sees published listings; owners and
	// admins may filter by status explicitly.
	if params.PublishStatus == nil && !middleware.IsAdmin(r.Context()) {
		published := StatusPublished
		params.PublishStatus = &published
	}

	listings, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]Response, 0, len(listings))
	for i := range listings {
		responses = append(responses, ToResponse(&listings[i]))
	}

	core.Paginated(w, responses, params.Page, params.PageSize, total)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ctx := r.Context()
	l, err := h.service.Update(
		ctx, middleware.GetUserID(ctx), id, req, middleware.IsAdmin(ctx),
	)
	if err != nil {
		h.writeAccessError(w, err)
		return
	}

	core.OK(w, ToResponse(l))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	err := h.service.Delete(
		ctx, middleware.GetUserID(ctx), id, middleware.IsAdmin(ctx),
	)
	if err != nil {
		h.writeAccessError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.SetPublishStatus(r.Context(), id, req.PublishStatus)
	if err != nil {
		var quotaErr *entitlement.QuotaError
		if errors.As(err, &quotaErr) {
			core.Forbidden(w, quotaErr.Error())
			return
		}
		h.writeAccessError(w, err)
		return
	}

	core.OK(w, map[string]int{"publish_status": req.PublishStatus})
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	images, err := h.service.Images(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if images == nil {
		images = []Image{}
	}
	core.OK(w, images)
}

func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	path, err := h.images.SaveImage(r, "image")
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	img, err := h.service.AddImage(
		r.Context(), middleware.GetUserID(r.Context()), id, path,
	)
	if err != nil {
		h.writeAccessError(w, err)
		return
	}

	core.Created(w, img)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(w, r, "imageID")
	if !ok {
		return
	}

	ctx := r.Context()
	err := h.service.DeleteImage(
		ctx, middleware.GetUserID(ctx), id, imageID, middleware.IsAdmin(ctx),
	)
	if err != nil {
		h.writeAccessError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "listing")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "you do not own this listing")
	default:
		core.InternalServerError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id < 1 {
		core.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func parseListParams(r *http.Request) ListParams {
	q := r.URL.Query()

	params := ListParams{
		VehicleType: q.Get("vehicle_type"),
		UserID:      q.Get("user_id"),
		Search:      q.Get("search"),
	}

	if s := q.Get("publish_status"); s != "" {
		if status, err := strconv.Atoi(s); err == nil &&
			status >= StatusInReview && status <= StatusDemoted {
			params.PublishStatus = &status
		}
	}
	if v, err := strconv.ParseInt(q.Get("brand_id"), 10, 64); err == nil {
		params.BrandID = v
	}
	if v, err := strconv.ParseInt(q.Get("location_id"), 10, 64); err == nil {
		params.LocationID = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = v
	}

	return params
}
