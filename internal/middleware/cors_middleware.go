package middleware

import (
	"slices"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const publicPrefix = "/api/public/"

type CORSMiddleware struct {
	handler gin.HandlerFunc
}

func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	config := cors.DefaultConfig()
	config.AddAllowHeaders("Authorization")

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}

	return &CORSMiddleware{
		handler: cors.New(config),
	}
}

// Middleware applies the dashboard CORS policy to /api routes. The public collection
// routes set their own headers and accept any origin.
func (m *CORSMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if !strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, publicPrefix) {
			c.Next()
			return
		}

		m.handler(c)
	}
}
