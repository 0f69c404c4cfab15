package reports

import (
	"net/http"

	"aduanas_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// APIKeyAuthMiddleware validates report API keys for the external CSV
// endpoints.
func APIKeyAuthMiddleware(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext := c.GetHeader("X-Report-API-Key")
		if plaintext == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "missing report API key"})
			return
		}

		hash := HashKey(plaintext)
		key, err := repo.GetAPIKeyByHash(c.Request.Context(), hash)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "invalid report API key"})
			return
		}

		c.Set("reportKeyID", key.ID)
		c.Next()
	}
}
