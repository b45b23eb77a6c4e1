// AngelaMos | 2026
// handler.go

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/imotor-app/marketplace-api/internal/core"
)

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes registers the public taxonomy endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/brands", h.ListBrands)
	r.Get("/locations", h.ListLocations)
	r.Get("/communities", h.ListCommunities)
}

// RegisterAdminRoutes registers the admin-only taxonomy management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/brands", h.CreateBrand)
		r.Put("/brands/{id}", h.UpdateBrand)
		r.Delete("/brands/{id}", h.DeleteBrand)

		r.Post("/locations", h.CreateLocation)
		r.Put("/locations/{id}", h.UpdateLocation)
		r.Delete("/locations/{id}", h.DeleteLocation)

		r.Post("/communities", h.CreateCommunity)
		r.Put("/communities/{id}", h.UpdateCommunity)
		r.Delete("/communities/{id}", h.DeleteCommunity)
	})
}

func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.repo.ListBrands(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	if brands == nil {
		brands = []Brand{}
	}

	core.OK(w, brands)
}

func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req BrandRequest
	if !h.decode(w, r, &req) {
		return
	}

	brand := &Brand{Name: req.Name, Type: req.Type, Image: req.Image}
	if err := h.repo.CreateBrand(r.Context(), brand); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, brand)
}

func (h *Handler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req BrandRequest
	if !h.decode(w, r, &req) {
		return
	}

	brand := &Brand{ID: id, Name: req.Name, Type: req.Type, Image: req.Image}
	if err := h.repo.UpdateBrand(r.Context(), brand); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "brand")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, brand)
}

func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "brand", h.repo.DeleteBrand)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repo.ListLocations(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	if locations == nil {
		locations = []Location{}
	}

	core.OK(w, locations)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	location := &Location{Name: req.Name, Image: req.Image}
	if err := h.repo.CreateLocation(r.Context(), location); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, location)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req LocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	location := &Location{ID: id, Name: req.Name, Image: req.Image}
	if err := h.repo.UpdateLocation(r.Context(), location); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "location")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, location)
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "location", h.repo.DeleteLocation)
}

func (h *Handler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	var locationID int64
	if raw := r.URL.Query().Get("location_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			core.BadRequest(w, "invalid location_id")
			return
		}
		locationID = parsed
	}

	communities, err := h.repo.ListCommunities(r.Context(), locationID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	if communities == nil {
		communities = []Community{}
	}

	core.OK(w, communities)
}

func (h *Handler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req CommunityRequest
	if !h.decode(w, r, &req) {
		return
	}

	community := &Community{
		Name:       req.Name,
		Image:      req.Image,
		LocationID: req.LocationID,
	}
	if err := h.repo.CreateCommunity(r.Context(), community); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, community)
}

func (h *Handler) UpdateCommunity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req CommunityRequest
	if !h.decode(w, r, &req) {
		return
	}

	community := &Community{
		ID:         id,
		Name:       req.Name,
		Image:      req.Image,
		LocationID: req.LocationID,
	}
	if err := h.repo.UpdateCommunity(r.Context(), community); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "community")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, community)
}

func (h *Handler) DeleteCommunity(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "community", h.repo.DeleteCommunity)
}

func (h *Handler) decode(
	w http.ResponseWriter,
	r *http.Request,
	req any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) deleteByID(
	w http.ResponseWriter,
	r *http.Request,
	resource string,
	remove func(context.Context, int64) error,
) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := remove(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, resource)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		core.BadRequest(w, "invalid id")
		return 0, false
	}

	return id, true
}
