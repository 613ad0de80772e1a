package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"bookshare-backend/internal/api/errmap"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/service"
)

type TransactionHandler struct {
	txSvc service.TransactionService
}

func NewTransactionHandler(txSvc service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc}
}

// transition runs op for the authenticated caller and renders the result from their point of view.
func (h *TransactionHandler) transition(ctx context.Context, method string, op func(userID string) (*domain.Transaction, error)) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := op(userID)
	if err != nil {
		logger.Debug("Transaction call failed", "method", method, "userID", userID, "error", err)
		return nil, errmap.Status(err)
	}
	return MapTransactionToStruct(tx, userID)
}

func (h *TransactionHandler) CreateRequest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "CreateRequest", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.CreateRequest(ctx, userID, service.CreateRequestInput{
			BookID:       getString(req, "bookId"),
			Duration:     domain.BorrowDuration(getString(req, "duration")),
			DurationDays: getInt(req, "durationDays"),
			Message:      getString(req, "message"),
		})
	})
}

func (h *TransactionHandler) Approve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "Approve", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.Approve(ctx, userID, getString(req, "id"))
	})
}

func (h *TransactionHandler) Reject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "Reject", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.Reject(ctx, userID, getString(req, "id"), getString(req, "reason"))
	})
}

func (h *TransactionHandler) Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "Cancel", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.Cancel(ctx, userID, getString(req, "id"), getString(req, "reason"))
	})
}

func (h *TransactionHandler) ConfirmHandover(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "ConfirmHandover", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.ConfirmHandover(ctx, userID, getString(req, "id"), getString(req, "otp"))
	})
}

func (h *TransactionHandler) ConfirmReturn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "ConfirmReturn", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.ConfirmReturn(ctx, userID, getString(req, "id"), getString(req, "otp"))
	})
}

func (h *TransactionHandler) RegenerateOTP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "RegenerateOTP", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.RegenerateOTP(ctx, userID, getString(req, "id"))
	})
}

func (h *TransactionHandler) MarkPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "MarkPayment", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.MarkPaymentConfirmed(ctx, userID, getString(req, "id"), domain.PartyRole(getString(req, "role")))
	})
}

func (h *TransactionHandler) Rate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "Rate", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.Rate(ctx, userID, getString(req, "id"), service.RateInput{
			Rating:              getInt(req, "rating"),
			Comment:             getOptString(req, "comment"),
			BookConditionRating: getOptInt(req, "bookConditionRating"),
		})
	})
}

func (h *TransactionHandler) GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.transition(ctx, "GetTransaction", func(userID string) (*domain.Transaction, error) {
		return h.txSvc.Get(ctx, userID, getString(req, "id"))
	})
}

func (h *TransactionHandler) ListMyTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	txns, total, err := h.txSvc.ListMine(ctx, userID, service.ListFilter{
		Role:   domain.PartyRole(getString(req, "role")),
		Status: domain.TransactionStatus(getString(req, "status")),
		Page:   getInt32(req, "page"),
		Limit:  getInt32(req, "limit"),
	})
	if err != nil {
		return nil, errmap.Status(err)
	}
	return MapTransactionsToStruct(txns, total, userID)
}
