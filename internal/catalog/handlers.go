package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Handler exposes variant endpoints.
type Handler struct {
	Svc *Service
}

// GetVariant handles GET /api/v1/variants/{id}.
func (h *Handler) GetVariant(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	v, err := h.Svc.GetVariant(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// ListVariants handles GET /api/v1/variants.
func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Svc.ListVariants(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage},
	})
}

// CreateVariant handles POST /api/v1/admin/variants.
func (h *Handler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	var in VariantInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	v, err := h.Svc.CreateVariant(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": v})
}

// DeleteVariant handles DELETE /api/v1/admin/variants/{id}.
func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.DeleteVariant(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.Validation("invalid variant id", map[string]any{"id": chi.URLParam(r, "id")}))
		return uuid.Nil, false
	}
	return id, true
}
