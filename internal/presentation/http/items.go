package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
)

// handleCreateItem godoc
// @Summary Create item
// @Tags items
// @Accept json
// @Produce json
// @Param item body itemRequest true "Item"
// @Success 201 {object} itemResponse
// @Failure 400 {object} errorResponse
// @Router /items/ [post]
func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	created, err := h.svc.Catalog.Create(r.Context(), catalog.CreateInput{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
		OwnerID:         req.OwnerID,
		AdultProduct:    req.AdultProduct,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(created))
}

// handleGetItem godoc
// @Summary Read item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} itemResponse
// @Failure 404 {object} errorResponse
// @Router /items/{id} [get]
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	found, err := h.svc.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(found))
}

// handleListItems godoc
// @Summary List items (short view)
// @Tags items
// @Produce json
// @Success 200 {array} itemSummaryResponse
// @Router /items/ [get]
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemSummaries(items))
}

// handleUpdateItem godoc
// @Summary Partially update item
// @Description Only the supplied fields change. "owner_id": null clears the owner.
// @Tags items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param patch body itemPatchRequest true "Fields to change"
// @Success 200 {object} itemResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /items/{id} [patch]
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	patch, err := decodeItemPatch(r)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	updated, err := h.svc.Catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(updated))
}

// decodeItemPatch tells an explicit "owner_id": null apart from an absent owner_id.
func decodeItemPatch(r *http.Request) (item.Patch, error) {
	raw, err := readBody(r)
	if err != nil {
		return item.Patch{}, err
	}
	var req itemPatchRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return item.Patch{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return item.Patch{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	patch := item.Patch{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
		OwnerID:         req.OwnerID,
		AdultProduct:    req.AdultProduct,
	}
	if v, ok := present["owner_id"]; ok && string(bytes.TrimSpace(v)) == "null" {
		patch.ClearOwner = true
	}
	return patch, nil
}

// handleDeleteItem godoc
// @Summary Delete item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {string} string "confirmation"
// @Failure 404 {object} errorResponse
// @Router /items/{id} [delete]
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if err := h.svc.Catalog.Delete(r.Context(), id); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("item %d deleted", id))
}

// handleItemsByOwner godoc
// @Summary Items listed by an owner
// @Tags items
// @Produce json
// @Param ownerId path int true "Owner user ID"
// @Success 200 {array} itemResponse
// @Failure 404 {object} errorResponse "owner has no items"
// @Router /items/get_by_owner/{ownerId} [get]
func (h *Handler) handleItemsByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerId")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	items, err := h.svc.Catalog.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSumPrices godoc
// @Summary Sum item prices
// @Description Fails with 404 when any id is missing. Repeated ids count once per occurrence.
// @Tags items
// @Accept json
// @Produce json
// @Param ids body []int64 true "Item IDs"
// @Success 200 {object} totalResponse
// @Failure 404 {object} errorResponse
// @Router /items/calculate-total/ [post]
func (h *Handler) handleSumPrices(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := decodeJSON(r, &ids); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	total, err := h.svc.Catalog.SumPrices(r.Context(), ids)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalResponse{Total: total})
}
