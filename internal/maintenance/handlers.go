package maintenance

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Handler exposes bulk jobs under /admin/variants/bulk.
type Handler struct {
	Svc *Service
}

type priceRequest struct {
	IDs        []uuid.UUID     `json:"ids" validate:"required,min=1"`
	Percentage decimal.Decimal `json:"percentage"`
	Direction  string          `json:"direction" validate:"required"`
}

type visibilityRequest struct {
	IDs      []uuid.UUID `json:"ids" validate:"required,min=1"`
	IsActive *bool       `json:"is_active" validate:"required"`
}

type stockRequest struct {
	IDs   []uuid.UUID `json:"ids" validate:"required,min=1"`
	Stock *int32      `json:"stock" validate:"required"`
}

// AdjustPrice handles POST /admin/variants/bulk/price.
func (h *Handler) AdjustPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decode(w, r, &req) {
		return
	}
	dir, ok := ParseDirection(req.Direction)
	if !ok {
		common.WriteError(w, common.Validation("direction must be increase or decrease", map[string]any{"direction": req.Direction}))
		return
	}
	rep, err := h.Svc.BulkAdjustPrice(r.Context(), req.IDs, req.Percentage, dir)
	respond(w, rep, err)
}

// ToggleVisibility handles POST /admin/variants/bulk/visibility.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !decode(w, r, &req) {
		return
	}
	rep, err := h.Svc.BulkToggleVisibility(r.Context(), req.IDs, *req.IsActive)
	respond(w, rep, err)
}

// SetStock handles POST /admin/variants/bulk/stock.
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !decode(w, r, &req) {
		return
	}
	rep, err := h.Svc.BulkSetStock(r.Context(), req.IDs, *req.Stock)
	respond(w, rep, err)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := common.DecodeJSON(r, dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	if err := common.ValidateStruct(dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, rep Report, err error) {
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rep})
}
