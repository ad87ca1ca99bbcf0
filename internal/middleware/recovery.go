package middleware

import (
	"fmt"
	"io"
	"net/http"

	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into the standard 500 error body and logs it through zerolog.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		utils.LogError(fmt.Errorf("panic: %v", recovered), "Recovered from panic in "+c.Request.Method+" "+c.Request.URL.Path)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", "Internal error"))
	})
}
