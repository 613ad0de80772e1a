package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the transaction and notification services over a connection.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

// WithToken returns a client that authenticates as another user on the same connection.
func (c *Client) WithToken(token string) *Client {
	return &Client{cc: c.cc, token: token}
}

func (c *Client) invoke(ctx context.Context, service, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+service+"/"+method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) tx(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	return c.invoke(ctx, TransactionServiceName, method, fields)
}

func (c *Client) CreateRequest(ctx context.Context, bookID, duration string, durationDays int, message string) (*structpb.Struct, error) {
	return c.tx(ctx, "CreateRequest", map[string]any{
		"bookId":       bookID,
		"duration":     duration,
		"durationDays": durationDays,
		"message":      message,
	})
}

func (c *Client) Approve(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.tx(ctx, "Approve", map[string]any{"id": id})
}

func (c *Client) Reject(ctx context.Context, id, reason string) (*structpb.Struct, error) {
	return c.tx(ctx, "Reject", map[string]any{"id": id, "reason": reason})
}

func (c *Client) Cancel(ctx context.Context, id, reason string) (*structpb.Struct, error) {
	return c.tx(ctx, "Cancel", map[string]any{"id": id, "reason": reason})
}

func (c *Client) ConfirmHandover(ctx context.Context, id, otp string) (*structpb.Struct, error) {
	return c.tx(ctx, "ConfirmHandover", map[string]any{"id": id, "otp": otp})
}

func (c *Client) ConfirmReturn(ctx context.Context, id, otp string) (*structpb.Struct, error) {
	return c.tx(ctx, "ConfirmReturn", map[string]any{"id": id, "otp": otp})
}

func (c *Client) RegenerateOTP(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.tx(ctx, "RegenerateOTP", map[string]any{"id": id})
}

func (c *Client) MarkPayment(ctx context.Context, id, role string) (*structpb.Struct, error) {
	return c.tx(ctx, "MarkPayment", map[string]any{"id": id, "role": role})
}

// Rate sends a rating; a zero bookCondition is left out.
func (c *Client) Rate(ctx context.Context, id string, rating int, comment string, bookCondition int) (*structpb.Struct, error) {
	fields := map[string]any{"id": id, "rating": rating}
	if comment != "" {
		fields["comment"] = comment
	}
	if bookCondition != 0 {
		fields["bookConditionRating"] = bookCondition
	}
	return c.tx(ctx, "Rate", fields)
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.tx(ctx, "GetTransaction", map[string]any{"id": id})
}

func (c *Client) ListMyTransactions(ctx context.Context, role, status string, page, limit int32) (*structpb.Struct, error) {
	return c.tx(ctx, "ListMyTransactions", map[string]any{"role": role, "status": status, "page": page, "limit": limit})
}

func (c *Client) ListNotifications(ctx context.Context, page, limit int32) (*structpb.Struct, error) {
	return c.invoke(ctx, NotificationServiceName, "ListNotifications", map[string]any{"page": page, "limit": limit})
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.invoke(ctx, NotificationServiceName, "MarkNotificationRead", map[string]any{"id": id})
}
