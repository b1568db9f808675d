package back

import (
	"net/http"

	"DocMCP/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// Result 统一返回入口
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	// 判断是否为自定义错误
	if e, ok := xerr.As(err); ok {
		Error(c, e.Code, e.Message)
		return
	}

	// 默认为系统错误
	Error(c, xerr.ErrServerError.Code, xerr.ErrServerError.Message)
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      xerr.OK,
		Message:   "Success",
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Error 错误返回，HTTP 状态固定 200，错误码放在 body 中
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Abort 以真实 HTTP 状态码中止请求，用于 MCP 客户端也会访问的路由
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}

// RequestIDKey gin.Context 中请求 ID 的键
const RequestIDKey = "request_id"
