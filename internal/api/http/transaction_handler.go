package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookshare-backend/internal/api/view"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/service"
)

type TransactionHandler struct {
	txSvc service.TransactionService
}

func NewTransactionHandler(txSvc service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc}
}

type createRequestBody struct {
	BookID       string `json:"bookId"`
	Duration     string `json:"duration"`
	DurationDays int    `json:"durationDays"`
	Message      string `json:"message"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

type otpBody struct {
	OTP string `json:"otp"`
}

type paymentBody struct {
	Role string `json:"role"`
}

type rateBody struct {
	Rating              int     `json:"rating"`
	Comment             *string `json:"comment"`
	BookConditionRating *int    `json:"bookConditionRating"`
}

// respondTransaction renders tx for the caller, or the mapped error.
func respondTransaction(w http.ResponseWriter, r *http.Request, status int, tx *domain.Transaction, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	respondWithJSON(w, status, map[string]any{"transaction": view.Transaction(tx, UserIDFromContext(r.Context()))})
}

func (h *TransactionHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.CreateRequest(r.Context(), UserIDFromContext(r.Context()), service.CreateRequestInput{
		BookID:       body.BookID,
		Duration:     domain.BorrowDuration(body.Duration),
		DurationDays: body.DurationDays,
		Message:      body.Message,
	})
	respondTransaction(w, r, http.StatusCreated, tx, err)
}

func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txSvc.Approve(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.Reject(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], body.Reason)
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.Cancel(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], body.Reason)
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) ConfirmHandover(w http.ResponseWriter, r *http.Request) {
	var body otpBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.ConfirmHandover(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], body.OTP)
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	var body otpBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.ConfirmReturn(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], body.OTP)
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) RegenerateOTP(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txSvc.RegenerateOTP(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) MarkPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.MarkPaymentConfirmed(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], domain.PartyRole(body.Role))
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var body rateBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.txSvc.Rate(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], service.RateInput{
		Rating:              body.Rating,
		Comment:             body.Comment,
		BookConditionRating: body.BookConditionRating,
	})
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txSvc.Get(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	respondTransaction(w, r, http.StatusOK, tx, err)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := UserIDFromContext(r.Context())
	txns, total, err := h.txSvc.ListMine(r.Context(), userID, service.ListFilter{
		Role:   domain.PartyRole(q.Get("role")),
		Status: domain.TransactionStatus(q.Get("status")),
		Page:   queryInt32(q.Get("page")),
		Limit:  queryInt32(q.Get("limit")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"transactions": view.Transactions(txns, userID),
		"totalCount":   total,
	})
}

// queryInt32 parses a paging parameter; bad or missing values fall back to the service defaults.
func queryInt32(v string) int32 {
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
