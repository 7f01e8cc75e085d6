package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/orders"
	"github.com/safar/go-commerce/internal/store"
)

type cartResponse struct {
	Items []models.CartItem `json:"items"`
	// Snapshot resolves each line against live price and stock; nil when a
	// line blocks resolution (Blocked carries the detail instead).
	Snapshot *orders.CartSnapshot     `json:"snapshot,omitempty"`
	Blocked  []orders.UnavailableLine `json:"blocked,omitempty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	items, err := store.GetCart(r.Context(), h.DB, claims.UserID)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}

	resp := cartResponse{Items: items}
	if len(items) > 0 {
		snap, err := h.Orders.Snapshot(r.Context(), claims.UserID)
		var stockErr *orders.StockError
		switch {
		case err == nil:
			resp.Snapshot = snap
		case errors.As(err, &stockErr):
			resp.Blocked = stockErr.Lines
		default:
			respondWorkflowError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "product_id required")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}

	item, err := store.AddCartItem(r.Context(), h.DB, claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must be >= 0")
		return
	}

	item, err := store.SetCartItemQuantity(r.Context(), h.DB, claims.UserID, productID, req.Quantity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	if item == nil {
		// Quantity 0 deletes the line.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := store.RemoveCartItem(r.Context(), h.DB, claims.UserID, productID); err != nil {
		respondWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
