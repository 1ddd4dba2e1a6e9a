package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/subwatch/subwatch/internal/app/service/user"
	"github.com/subwatch/subwatch/internal/models"
	cfgpkg "github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/logctx"
	"github.com/subwatch/subwatch/pkg/response"
)

// Context key under which the authenticated user is stored.
const KeyCurrentUser = "current_user"

// AuthMiddleware verifies the Bearer token and loads the account. Tokens
// of deactivated users are rejected even if still within their TTL.
func AuthMiddleware(cfg *cfgpkg.Config, users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid or expired token"))
			return
		}

		u, err := users.GetActiveByID(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "account not found or deactivated"))
			return
		}

		c.Set(KeyCurrentUser, u)
		ctx := context.WithValue(c.Request.Context(), logctx.KeyUserID, u.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentUser fetches the authenticated user attached by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(KeyCurrentUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
