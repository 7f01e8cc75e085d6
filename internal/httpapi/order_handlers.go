package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/orders"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req struct {
		ShippingAddress string `json:"shippingAddress"`
		BillingAddress  string `json:"billingAddress"`
		PaymentMethod   string `json:"paymentMethod"`
		CouponCode      string `json:"couponCode"`
		Notes           string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ShippingAddress == "" || req.BillingAddress == "" || req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "shippingAddress, billingAddress and paymentMethod required")
		return
	}

	result, err := h.Orders.Checkout(r.Context(), claims.UserID, orders.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func listQueryFromRequest(r *http.Request, userID int64) orders.ListQuery {
	page, pageSize := parsePaging(r)
	q := orders.ListQuery{
		UserID:   userID,
		Status:   models.OrderStatus(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: pageSize,
		SortBy:   r.URL.Query().Get("sort"),
		SortDesc: r.URL.Query().Get("dir") != "asc",
	}
	return q
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	q := listQueryFromRequest(r, claims.UserID)
	if q.Status != "" && !models.ValidOrderStatus(q.Status) {
		respondError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	page, err := h.Orders.List(r.Context(), q)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.Orders.Get(r.Context(), claims.UserID, claims.IsAdmin, id)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.Orders.Cancel(r.Context(), claims.UserID, claims.IsAdmin, id)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	q := listQueryFromRequest(r, 0)
	if q.Status != "" && !models.ValidOrderStatus(q.Status) {
		respondError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	page, err := h.Orders.List(r.Context(), q)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.Orders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
