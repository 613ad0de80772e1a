package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TransactionServiceName  = "bookshare.v1.TransactionService"
	NotificationServiceName = "bookshare.v1.NotificationService"
)

// TransactionServer is the server API for bookshare.v1.TransactionService.
type TransactionServer interface {
	CreateRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Approve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmHandover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmReturn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegenerateOTP(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Rate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMyTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// NotificationServer is the server API for bookshare.v1.NotificationService.
type NotificationServer interface {
	ListNotifications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkNotificationRead(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod[S any] func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a Struct-in/Struct-out method to a grpc.MethodHandler.
func unaryHandler[S any](service, method string, call structMethod[S]) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func txMethod(name string, call structMethod[TransactionServer]) grpc.MethodDesc {
	return unaryHandler(TransactionServiceName, name, call)
}

func noteMethod(name string, call structMethod[NotificationServer]) grpc.MethodDesc {
	return unaryHandler(NotificationServiceName, name, call)
}

var TransactionServiceDesc = grpc.ServiceDesc{
	ServiceName: TransactionServiceName,
	HandlerType: (*TransactionServer)(nil),
	Methods: []grpc.MethodDesc{
		txMethod("CreateRequest", TransactionServer.CreateRequest),
		txMethod("Approve", TransactionServer.Approve),
		txMethod("Reject", TransactionServer.Reject),
		txMethod("Cancel", TransactionServer.Cancel),
		txMethod("ConfirmHandover", TransactionServer.ConfirmHandover),
		txMethod("ConfirmReturn", TransactionServer.ConfirmReturn),
		txMethod("RegenerateOTP", TransactionServer.RegenerateOTP),
		txMethod("MarkPayment", TransactionServer.MarkPayment),
		txMethod("Rate", TransactionServer.Rate),
		txMethod("GetTransaction", TransactionServer.GetTransaction),
		txMethod("ListMyTransactions", TransactionServer.ListMyTransactions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookshare/v1/transaction.proto",
}

var NotificationServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServer)(nil),
	Methods: []grpc.MethodDesc{
		noteMethod("ListNotifications", NotificationServer.ListNotifications),
		noteMethod("MarkNotificationRead", NotificationServer.MarkNotificationRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookshare/v1/notification.proto",
}

func RegisterTransactionServiceServer(s grpc.ServiceRegistrar, srv TransactionServer) {
	s.RegisterService(&TransactionServiceDesc, srv)
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServer) {
	s.RegisterService(&NotificationServiceDesc, srv)
}
