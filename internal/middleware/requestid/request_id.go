package requestid

import (
	"DocMCP/pkg/back"
	"DocMCP/pkg/util"

	"github.com/gin-gonic/gin"
)

// HeaderName 请求 ID 头
const HeaderName = "X-Request-Id"

// New 透传合法的 X-Request-Id，否则生成新的，并写回响应头
func New() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.NormalizeRequestID(c.GetHeader(HeaderName))
		c.Set(back.RequestIDKey, id)
		c.Request = c.Request.WithContext(util.WithRequestID(c.Request.Context(), id))
		c.Header(HeaderName, id)
		c.Next()
	}
}
