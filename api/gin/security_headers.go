package indexergin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.pilab.hu/indexer/api"
)

// CORSMiddleware adds the browser CORS headers and answers preflight
// requests with an empty 200.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", api.CORSAllowOrigin)
		c.Header("Access-Control-Allow-Headers", api.CORSAllowHeaders)
		c.Header("Access-Control-Allow-Methods", api.CORSAllowMethods)
		c.Header("X-Content-Type-Options", "nosniff")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
