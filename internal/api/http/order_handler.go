package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type OrderHandler struct {
	orderSvc service.OrderService
}

func NewOrderHandler(orderSvc service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

type createOrderRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.CustomerName == "" {
		badRequest(w, "customer_name is required")
		return
	}

	order, err := h.orderSvc.CreateOrder(r.Context(), service.CreateOrderInput{
		OrgID:         vars["orgID"],
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type orderResponse struct {
	Order    *domain.Order    `json:"order"`
	Bookings []domain.Booking `json:"bookings"`
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	order, bookings, err := h.orderSvc.GetOrder(r.Context(), vars["orgID"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: order, Bookings: bookings})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page, pageSize := paginationParams(r)
	orders, total, err := h.orderSvc.ListOrders(r.Context(), vars["orgID"], page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

type cancelOrderRequest struct {
	ShouldRefund   bool              `json:"should_refund"`
	RefundAmount   *decimal.Decimal  `json:"refund_amount,omitempty"`
	ShouldTransfer bool              `json:"should_transfer"`
	Transfers      []transferRequest `json:"transfers,omitempty"`
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req cancelOrderRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	order, err := h.orderSvc.CancelOrder(r.Context(), vars["orgID"], vars["id"], service.CancelOrderInput{
		ShouldRefund:   req.ShouldRefund,
		RefundAmount:   req.RefundAmount,
		ShouldTransfer: req.ShouldTransfer,
		Transfers:      toTransferInputs(req.Transfers),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
