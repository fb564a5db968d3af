package middleware

import (
	"github.com/gin-gonic/gin"
	ginzap "github.com/gin-contrib/zap"
	"go.uber.org/zap"

	resp "estate-market/internal/transport/http/response"
)

// Recovery logs the panic with its stack and answers with a 500 envelope.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.Abort(c, resp.CodeServerError, "internal error")
	})
}
