package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"signupvault/internal/services"

	"github.com/gin-gonic/gin"
)

type Collector interface {
	Collect(ctx context.Context, req services.CollectRequest) (services.CollectResult, error)
}

type collectFailure struct {
	status  int
	message string
}

var collectFailures = []struct {
	err error
	collectFailure
}{
	{services.ErrInvalidEmail, collectFailure{400, "Invalid email"}},
	{services.ErrMissingCredential, collectFailure{401, "Missing API key"}},
	{services.ErrUnauthorized, collectFailure{401, "Invalid project or API key"}},
	{services.ErrRateLimited, collectFailure{429, "Rate limit exceeded"}},
}

var invalidRequest = collectFailure{400, "Invalid request"}

type CollectController struct {
	router    *gin.RouterGroup
	collector Collector
}

func NewCollectController(router *gin.RouterGroup, collector Collector) *CollectController {
	return &CollectController{
		router:    router,
		collector: collector,
	}
}

func (cc *CollectController) SetupRoutes() {
	for _, path := range []string{"/collect/:projectId", "/api/public/collect/:projectId"} {
		cc.router.OPTIONS(path, cc.preflight)
		cc.router.POST(path, cc.collect)
	}
}

func (cc *CollectController) preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-KEY")
	c.JSON(200, gin.H{"success": true})
}

// ClientAddress picks the first x-forwarded-for entry, then x-real-ip. Returns an
// empty string when neither header is present.
func ClientAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("x-forwarded-for"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	return c.GetHeader("x-real-ip")
}

func Country(c *gin.Context) string {
	for _, header := range []string{"cf-ipcountry", "x-vercel-ip-country", "x-country"} {
		if value := c.GetHeader(header); value != "" {
			return value
		}
	}

	return ""
}

func (cc *CollectController) collect(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")

	var body any

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(invalidRequest.status, gin.H{"error": invalidRequest.message})
		return
	}

	var email any

	if fields, ok := body.(map[string]any); ok {
		email = fields["email"]
	}

	result, err := cc.collector.Collect(c.Request.Context(), services.CollectRequest{
		ProjectID: c.Param("projectId"),
		APIKey:    c.GetHeader("x-api-key"),
		Email:     email,
		IP:        ClientAddress(c),
		Country:   Country(c),
		UserAgent: c.GetHeader("user-agent"),
	})

	if result.RateLimit != nil {
		c.Header("x-ratelimit-limit", fmt.Sprint(result.RateLimit.Limit))
		c.Header("x-ratelimit-remaining", fmt.Sprint(result.RateLimit.Remaining))
	}

	if err != nil {
		failure := invalidRequest

		for _, f := range collectFailures {
			if errors.Is(err, f.err) {
				failure = f.collectFailure
				break
			}
		}

		c.JSON(failure.status, gin.H{"error": failure.message})
		return
	}

	c.JSON(201, gin.H{"success": true})
}
