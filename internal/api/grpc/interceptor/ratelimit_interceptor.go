package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"bookshare-backend/internal/api/errmap"
	"bookshare-backend/internal/config"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/ratelimit"
)

// RateLimitInterceptor bounds OTP confirmation attempts per authenticated user.
// It must run after the auth interceptor.
type RateLimitInterceptor struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitInterceptor(limiter *ratelimit.Limiter) *RateLimitInterceptor {
	return &RateLimitInterceptor{limiter: limiter}
}

func (i *RateLimitInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !config.OTPConfirmMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		userID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(UserIDKey); len(ids) > 0 {
				userID = ids[0]
			}
		}
		if !i.limiter.Allow(userID) {
			logger.Warn("OTP attempt rate limited", "method", info.FullMethod, "userID", userID)
			return nil, errmap.Status(domain.ErrRateLimited)
		}
		return handler(ctx, req)
	}
}
