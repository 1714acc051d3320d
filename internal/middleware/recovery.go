package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery es la última red: cualquier pánico no manejado termina en un
// 500 JSON en vez de tumbar el proceso.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
