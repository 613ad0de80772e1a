package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"bookshare-backend/internal/api/grpc/interceptor"
	"bookshare-backend/internal/ratelimit"
	"bookshare-backend/internal/security"
	"bookshare-backend/internal/service"
)

// NewServer builds the gRPC server with auth, then OTP rate limiting, in front of every call.
func NewServer(tm security.TokenManager, limiter *ratelimit.Limiter, txSvc service.TransactionService, noteSvc service.NotificationService) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.NewAuthInterceptor(tm).Unary(),
			interceptor.NewRateLimitInterceptor(limiter).Unary(),
		),
	)

	RegisterTransactionServiceServer(s, NewTransactionHandler(txSvc))
	RegisterNotificationServiceServer(s, NewNotificationHandler(noteSvc))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(TransactionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(NotificationServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
