package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
)

// ServiceTokenAuth authenticates internal caller services via the x-api-key
// header. On success the caller's service id becomes the actor id and JWT
// auth is skipped; on failure the request continues to JWT auth.
func ServiceTokenAuth(tokenSvc portssvc.ServiceTokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next()
			return
		}

		serviceID, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("Service token validation failed", slog.String("error", err.Error()))
			c.Next()
			return
		}

		ctx := WithActorID(c.Request.Context(), serviceID)
		ctx = context.WithValue(ctx, authMethodKey, "service_token")
		ctx = context.WithValue(ctx, loggerCtxKey, GetLoggerFromCtx(ctx).With(slog.String("actor_id", serviceID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
