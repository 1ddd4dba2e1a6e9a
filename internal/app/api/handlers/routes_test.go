package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func routeSet(r *gin.Engine) func(string) bool {
	routes := r.Routes()
	return func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}
}

func TestRegisterSubscriptionRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterSubscriptionRoutes(g, nil, nil)

	contains := routeSet(r)
	require.True(t, contains("GET /api/v1/subscriptions"))
	require.True(t, contains("POST /api/v1/subscriptions"))
	require.True(t, contains("GET /api/v1/subscriptions/:id"))
	require.True(t, contains("PUT /api/v1/subscriptions/:id"))
	require.True(t, contains("DELETE /api/v1/subscriptions/:id"))
	require.True(t, contains("POST /api/v1/subscriptions/:id/renew"))
	require.True(t, contains("POST /api/v1/subscriptions/:id/send-reminder"))
	require.True(t, contains("GET /api/v1/subscriptions/stats/dashboard"))
	require.True(t, contains("POST /api/v1/subscriptions/test-email"))
}

func TestRegisterUserRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterUserRoutes(g, nil, nil)

	contains := routeSet(r)
	require.True(t, contains("GET /api/v1/users/profile"))
	require.True(t, contains("PUT /api/v1/users/profile"))
	require.True(t, contains("PUT /api/v1/users/change-password"))
	require.True(t, contains("DELETE /api/v1/users/account"))
	require.True(t, contains("GET /api/v1/users/export"))
}

func TestRegisterAuthRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterAuthRoutes(g, g, nil)

	contains := routeSet(r)
	require.True(t, contains("POST /api/v1/auth/register"))
	require.True(t, contains("POST /api/v1/auth/login"))
	require.True(t, contains("GET /api/v1/auth/me"))
}

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterAdminRoutes(g, nil)

	contains := routeSet(r)
	require.True(t, contains("POST /api/v1/admin/reminders/run"))
}
