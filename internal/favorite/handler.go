// AngelaMos | 2026
// handler.go

package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/listing"
	"github.com/imotor-app/marketplace-api/internal/middleware"
)

type Handler struct {
	repo     Repository
	listings listing.Repository
}

func NewHandler(repo Repository, listings listing.Repository) *Handler {
	return &Handler{repo: repo, listings: listings}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/favorites", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/{listingID}", h.Add)
		r.Delete("/{listingID}", h.Remove)
		r.Get("/{listingID}", h.Check)
	})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	// Favoriting a listing that does not exist is a 404, not an FK error.
	if _, err := h.listings.GetListing(r.Context(), listingID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.repo.Add(r.Context(), userID, listingID); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.Conflict(w, "already added to favorites")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]string{
		"message": "listing added to favorites",
	})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.repo.Remove(r.Context(), userID, listingID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "favorite")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	if pageSize > 100 {
		pageSize = 100
	}

	listings, total, err := h.repo.ListListings(
		r.Context(), userID, page, pageSize,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]listing.Response, 0, len(listings))
	for i := range listings {
		responses = append(responses, listing.ToResponse(&listings[i]))
	}

	core.Paginated(w, responses, page, pageSize, total)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	exists, err := h.repo.Exists(r.Context(), userID, listingID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"is_favorite": exists})
}

func parseListingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil || id < 1 {
		core.BadRequest(w, "invalid listing id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}
