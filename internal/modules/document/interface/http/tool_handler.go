package http

import (
	"encoding/json"
	"errors"
	"io"

	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	"DocMCP/internal/modules/document/infrastructure/mcp/types"
	"DocMCP/pkg/back"
	"DocMCP/pkg/xerr"
	"DocMCP/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToolHandler 工具的 REST 入口，方便不带 MCP 客户端的调试
type ToolHandler struct {
	reg *registry.ToolRegistry
}

func NewToolHandler(reg *registry.ToolRegistry) *ToolHandler {
	return &ToolHandler{reg: reg}
}

// ListTools GET /api/tools
func (h *ToolHandler) ListTools(c *gin.Context) {
	back.Success(c, h.reg.Descriptors())
}

// CallTool POST /api/tools/:name，请求体即工具参数，data 为工具返回的 JSON
func (h *ToolHandler) CallTool(c *gin.Context) {
	name := c.Param("name")

	// 空请求体等同于 {}
	args := map[string]interface{}{}
	if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	result, err := h.reg.Dispatch(c.Request.Context(), name, args)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}

	zlog.Debug("rest tool call", zap.String("tool", name), zap.Bool("success", result.Success),
		zap.String("request_id", c.GetString(back.RequestIDKey)))
	if json.Valid([]byte(result.Text)) {
		back.Success(c, json.RawMessage(result.Text))
		return
	}
	back.Success(c, result.Text)
}

func toCodeError(err error) error {
	switch {
	case errors.Is(err, types.ErrUnknownTool):
		return xerr.Wrap(xerr.NotFound, err)
	case errors.Is(err, types.ErrInvalidArgument):
		return xerr.Wrap(xerr.BadRequest, err)
	}
	return err
}
