package order

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Handler serves customer and admin order endpoints.
type Handler struct {
	Svc *Service
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /orders for the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Svc.ListMine(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "pagination": common.Pagination{Page: page, PerPage: perPage}})
}

// Get handles GET /orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Cancel handles POST /orders/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.CancelOwn(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// AdminList handles GET /admin/orders.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Svc.ListAll(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "pagination": common.Pagination{Page: page, PerPage: perPage}})
}

// PatchStatus handles PATCH /admin/orders/{id}/status.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	target, valid := ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !valid {
		common.WriteError(w, common.Validation("unsupported status", map[string]any{"status": req.Status}))
		return
	}
	out, err := h.Svc.Transition(r.Context(), id, target)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.Validation("invalid order id", nil))
		return uuid.Nil, false
	}
	return id, true
}
