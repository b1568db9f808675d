package ssl

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// TlsHandler 将明文请求重定向到 host:port 的 HTTPS 地址
func TlsHandler(host string, port int) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:     true,
		SSLHost:         host + ":" + strconv.Itoa(port),
		SSLProxyHeaders: map[string]string{"X-Forwarded-Proto": "https"},
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// Process 已经写入了重定向响应
		if err != nil {
			c.Abort()
			return
		}

		c.Next()
	}
}
