package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/go-commerce/internal/auth"
	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/orders"
)

// Handler owns the HTTP surface: auth, catalog, cart and the order workflow.
type Handler struct {
	DB     *sql.DB
	Orders *orders.Service
	Issuer *auth.TokenIssuer
}

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)

	r.Group(func(r chi.Router) {
		r.Use(h.Issuer.Middleware)

		r.Get("/cart", h.getCart)
		r.Post("/cart", h.addToCart)
		r.Put("/cart/{productID}", h.updateCartItem)
		r.Delete("/cart/{productID}", h.removeCartItem)

		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Put("/orders/{id}/cancel", h.cancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/products", h.createProduct)
			r.Post("/coupons", h.createCoupon)
			r.Get("/orders/admin", h.adminListOrders)
			r.Put("/orders/admin/{id}/status", h.adminSetStatus)
		})
	})

	return r
}

type errorResponse struct {
	Error   string                   `json:"error"`
	Code    string                   `json:"code,omitempty"`
	Details []orders.UnavailableLine `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondWorkflowError maps the workflow error taxonomy onto HTTP statuses.
// Anything unclassified is a server error and deliberately unelaborated.
func respondWorkflowError(w http.ResponseWriter, err error) {
	var stockErr *orders.StockError

	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "empty_cart"})
	case errors.Is(err, orders.ErrInvalidCoupon):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_coupon"})
	case errors.Is(err, orders.ErrProductUnavailable):
		resp := errorResponse{Error: err.Error(), Code: "product_unavailable"}
		if errors.As(err, &stockErr) {
			resp.Details = stockErr.Lines
		}
		respondJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, orders.ErrStockChanged):
		resp := errorResponse{Error: err.Error(), Code: "stock_changed"}
		if errors.As(err, &stockErr) {
			resp.Details = stockErr.Lines
		}
		respondJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, orders.ErrNotCancellable):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "not_cancellable"})
	case errors.Is(err, orders.ErrIllegalTransition):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "illegal_transition"})
	case errors.Is(err, orders.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Code: "forbidden"})
	case errors.Is(err, orders.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	case database.IsUniqueViolation(err):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "already exists", Code: "conflict"})
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func callerClaims(r *http.Request) *auth.Claims {
	claims, _ := auth.FromContext(r.Context())
	return claims
}
