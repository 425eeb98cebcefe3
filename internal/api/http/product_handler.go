package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type ProductHandler struct {
	productSvc service.ProductService
}

func NewProductHandler(productSvc service.ProductService) *ProductHandler {
	return &ProductHandler{productSvc: productSvc}
}

func paginationParams(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  *string         `json:"category_id,omitempty"`
	DefaultRent decimal.Decimal `json:"default_rent"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req createProductRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	product, err := h.productSvc.AddProduct(r.Context(), service.CreateProductInput{
		OrgID:       vars["orgID"],
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		DefaultRent: req.DefaultRent,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	product, err := h.productSvc.GetProduct(r.Context(), vars["orgID"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *string          `json:"category_id,omitempty"`
	DefaultRent *decimal.Decimal `json:"default_rent,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req updateProductRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), vars["orgID"], vars["id"], service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		DefaultRent: req.DefaultRent,
		Active:      req.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.productSvc.DeactivateProduct(r.Context(), vars["orgID"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page, pageSize := paginationParams(r)
	products, total, err := h.productSvc.ListProducts(r.Context(), vars["orgID"], page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "total": total})
}
