package jwt

import (
	"net/http"
	"strings"

	"DocMCP/pkg/back"
	"DocMCP/pkg/util/myjwt"
	"DocMCP/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubjectKey gin.Context 中调用方标识的键
const SubjectKey = "subject"

func Auth(signer *myjwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Abort(c, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := signer.ParseToken(tokenString)
		if err != nil {
			zlog.Debug("reject bearer token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			back.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
