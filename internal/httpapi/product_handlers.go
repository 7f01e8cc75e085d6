package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-commerce/internal/store"
	"github.com/shopspring/decimal"
)

func parsePaging(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)
	result, err := store.ListProducts(r.Context(), h.DB, r.URL.Query().Get("category"), page, pageSize)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU         string  `json:"sku"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Price       string  `json:"price"`
		Stock       int     `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SKU == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "sku and name required")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price must be a non-negative decimal")
		return
	}
	if req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "stock must be >= 0")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req.SKU, req.Name, req.Description, req.Category, price.Round(2), req.Stock)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		Percent    int    `json:"percent"`
		Amount     string `json:"amount"`
		ExpiresAt  string `json:"expires_at"`
		UsageLimit int    `json:"usage_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code required")
		return
	}
	if req.Percent < 0 || req.Percent > 100 {
		respondError(w, http.StatusBadRequest, "percent must be between 0 and 100")
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil || amount.IsNegative() {
			respondError(w, http.StatusBadRequest, "amount must be a non-negative decimal")
			return
		}
	}
	if req.Percent == 0 && amount.IsZero() {
		respondError(w, http.StatusBadRequest, "either percent or amount required")
		return
	}

	var expiresAt time.Time
	if req.ExpiresAt != "" {
		var err error
		expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expires_at must be RFC3339")
			return
		}
	}

	coupon, err := store.CreateCoupon(r.Context(), h.DB, req.Code, req.Percent, amount.Round(2), expiresAt, req.UsageLimit)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, coupon)
}
