package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
}

func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

type createBookingRequest struct {
	ProductID         string          `json:"product_id"`
	CategoryID        *string         `json:"category_id,omitempty"`
	FromDateTime      time.Time       `json:"from_date_time"`
	ToDateTime        time.Time       `json:"to_date_time"`
	DecidedRent       decimal.Decimal `json:"decided_rent"`
	AdvanceAmount     decimal.Decimal `json:"advance_amount"`
	AdvanceNote       string          `json:"advance_note,omitempty"`
	OverrideConflicts bool            `json:"override_conflicts,omitempty"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req createBookingRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookingSvc.CreateBooking(r.Context(), service.CreateBookingInput{
		OrgID:             vars["orgID"],
		OrderID:           vars["orderID"],
		ProductID:         req.ProductID,
		CategoryID:        req.CategoryID,
		From:              req.FromDateTime,
		To:                req.ToDateTime,
		DecidedRent:       req.DecidedRent,
		AdvanceAmount:     req.AdvanceAmount,
		AdvanceNote:       req.AdvanceNote,
		OverrideConflicts: req.OverrideConflicts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	booking, err := h.bookingSvc.GetBooking(r.Context(), vars["orgID"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type updateBookingRequest struct {
	ProductID         *string          `json:"product_id,omitempty"`
	CategoryID        *string          `json:"category_id,omitempty"`
	FromDateTime      *time.Time       `json:"from_date_time,omitempty"`
	ToDateTime        *time.Time       `json:"to_date_time,omitempty"`
	DecidedRent       *decimal.Decimal `json:"decided_rent,omitempty"`
	AdvanceAmount     *decimal.Decimal `json:"advance_amount,omitempty"`
	OverrideConflicts bool             `json:"override_conflicts,omitempty"`
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req updateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookingSvc.UpdateBooking(r.Context(), vars["orgID"], vars["id"], service.UpdateBookingInput{
		ProductID:         req.ProductID,
		CategoryID:        req.CategoryID,
		From:              req.FromDateTime,
		To:                req.ToDateTime,
		DecidedRent:       req.DecidedRent,
		AdvanceAmount:     req.AdvanceAmount,
		OverrideConflicts: req.OverrideConflicts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type transitionRequest struct {
	PaymentAmount *decimal.Decimal `json:"payment_amount,omitempty"`
	Note          string           `json:"note,omitempty"`
}

func (r *transitionRequest) payment() *service.PaymentInput {
	if r.PaymentAmount == nil {
		return nil
	}
	return &service.PaymentInput{Type: domain.PaymentTypeReceived, Amount: *r.PaymentAmount, Note: r.Note}
}

func (h *BookingHandler) Issue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingSvc.IssueBooking(r.Context(), vars["orgID"], vars["id"], req.payment())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Return(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingSvc.ReturnBooking(r.Context(), vars["orgID"], vars["id"], req.payment())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type transferRequest struct {
	TargetBookingID string          `json:"target_booking_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type cancelBookingRequest struct {
	RefundAmount *decimal.Decimal  `json:"refund_amount,omitempty"`
	Transfers    []transferRequest `json:"transfers,omitempty"`
}

func toTransferInputs(transfers []transferRequest) []service.TransferInput {
	out := make([]service.TransferInput, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, service.TransferInput{TargetBookingID: t.TargetBookingID, Amount: t.Amount})
	}
	return out
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req cancelBookingRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingSvc.CancelBooking(r.Context(), vars["orgID"], vars["id"], service.CancelBookingInput{
		RefundAmount: req.RefundAmount,
		Transfers:    toTransferInputs(req.Transfers),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type addPaymentRequest struct {
	Type   domain.PaymentType `json:"type"`
	Amount decimal.Decimal    `json:"amount"`
	Note   string             `json:"note,omitempty"`
}

func (h *BookingHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req addPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingSvc.AddPayment(r.Context(), vars["orgID"], vars["id"], service.PaymentInput{
		Type:   req.Type,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) RefundPreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	preview, err := h.bookingSvc.PreviewCancellationRefund(r.Context(), vars["orgID"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Conflicts exposes the conflict detector for pre-flight checks from the
// booking form.
func (h *BookingHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query()

	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		badRequest(w, "invalid or missing 'from' parameter, expected RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		badRequest(w, "invalid or missing 'to' parameter, expected RFC3339")
		return
	}

	conflicts, err := h.bookingSvc.DetectConflicts(r.Context(), vars["orgID"], vars["id"], from, to, query.Get("exclude"))
	if err != nil {
		writeError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}
