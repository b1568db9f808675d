package types

import (
	"errors"
	"fmt"
)

// MCP 错误代码
const (
	ErrCodeInvalidParams  = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
	ErrCodeToolNotFound   = -32001
)

var (
	// ErrUnknownTool 工具未注册
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgument 参数缺失或类型不符
	ErrInvalidArgument = errors.New("invalid argument")
)

// ToolError 调度层错误，不属于业务返回
type ToolError struct {
	Code    int
	Tool    string
	Field   string
	Message string
	kind    error
}

func (e *ToolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.kind
}

// NewUnknownToolError 创建工具不存在错误
func NewUnknownToolError(name string) *ToolError {
	return &ToolError{
		Code:    ErrCodeToolNotFound,
		Tool:    name,
		Message: fmt.Sprintf("tool '%s' not found", name),
		kind:    ErrUnknownTool,
	}
}

// NewInvalidArgumentError 创建参数错误，field 为出错的参数名
func NewInvalidArgumentError(tool, field, message string) *ToolError {
	return &ToolError{
		Code:    ErrCodeInvalidParams,
		Tool:    tool,
		Field:   field,
		Message: message,
		kind:    ErrInvalidArgument,
	}
}
