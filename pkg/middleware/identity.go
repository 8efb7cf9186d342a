package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

const callerKey = "caller"

// UserResolver looks up the registered user behind an authenticated
// identity. The role always comes from the stored record, never from the
// request.
type UserResolver interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Identity resolves the caller from the X-User-Id (or X-User-Email)
// header set by the upstream auth layer. Requests without either header
// proceed as anonymous; unknown ids proceed as anonymous too, so stale
// tokens degrade to read-only access instead of failing reads.
func Identity(users UserResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user *domain.User
		var err error

		ctx := c.Request.Context()
		switch {
		case c.GetHeader("X-User-Id") != "":
			user, err = users.Get(ctx, c.GetHeader("X-User-Id"))
		case c.GetHeader("X-User-Email") != "":
			user, err = users.GetByEmail(ctx, c.GetHeader("X-User-Email"))
		default:
			c.Next()
			return
		}

		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				logger.Warn("Authenticated header did not match a registered user",
					zap.String("request_id", c.GetString(requestIDKey)))
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "storage unavailable",
			})
			return
		}

		c.Set(callerKey, auth.Caller{
			ID:    user.UserID,
			Email: user.Email,
			Role:  user.Role,
		})
		c.Next()
	}
}

// CallerFrom returns the resolved caller, or the anonymous caller when
// identity resolution did not run or found no user.
func CallerFrom(c *gin.Context) auth.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(auth.Caller); ok {
			return caller
		}
	}
	return auth.Caller{}
}
