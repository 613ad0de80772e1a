package grpc

import (
	"google.golang.org/protobuf/types/known/structpb"

	"bookshare-backend/internal/api/view"
	"bookshare-backend/internal/domain"
)

func getString(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func getInt(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func getInt32(s *structpb.Struct, key string) int32 {
	return int32(s.GetFields()[key].GetNumberValue())
}

// getOptString returns nil for an absent or null field.
func getOptString(s *structpb.Struct, key string) *string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil
	}
	str := v.GetStringValue()
	return &str
}

func getOptInt(s *structpb.Struct, key string) *int {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil
	}
	n := int(v.GetNumberValue())
	return &n
}

func MapTransactionToStruct(tx *domain.Transaction, viewerID string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"transaction": view.Transaction(tx, viewerID)})
}

func MapTransactionsToStruct(txns []domain.Transaction, total int32, viewerID string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"transactions": view.Transactions(txns, viewerID),
		"totalCount":   int64(total),
	})
}

func MapNotificationsToStruct(notes []domain.Notification, total, unread int32) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"notifications": view.Notifications(notes),
		"totalCount":    int64(total),
		"unreadCount":   int64(unread),
	})
}
