package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poetica/internal/apperr"
)

// Recovery turns a panic into a 500 JSON response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				RequestLogger(c).Error("Panic recovered",
					zap.Any("error", r),
					zap.String("stack", string(debug.Stack())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				err := apperr.Internal(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(err.Status, err.Body())
			}
		}()
		c.Next()
	}
}
