package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DocMCP/internal/modules/document/infrastructure/mcp/types"
	"DocMCP/pkg/zlog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "docmcp/tools"

type registeredTool struct {
	def     types.ToolDefinition
	handler types.ToolHandler
}

// ToolRegistry 工具注册表，启动时填充，之后只读
type ToolRegistry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	order  []string
	tracer trace.Tracer
}

// Option 注册表选项
type Option func(*ToolRegistry)

// WithTracer 指定 tracer，默认使用全局 TracerProvider
func WithTracer(tracer trace.Tracer) Option {
	return func(r *ToolRegistry) {
		r.tracer = tracer
	}
}

// NewToolRegistry 创建工具注册表
func NewToolRegistry(opts ...Option) *ToolRegistry {
	r := &ToolRegistry{
		tools: make(map[string]*registeredTool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return r
}

// Register 注册工具，名称在进程内唯一
func (r *ToolRegistry) Register(def types.ToolDefinition, handler types.ToolHandler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool '%s' has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool '%s' already registered", def.Name)
	}
	r.tools[def.Name] = &registeredTool{def: def, handler: handler}
	r.order = append(r.order, def.Name)

	zlog.Info(fmt.Sprintf("MCP: Registered tool '%s'", def.Name))
	return nil
}

// List 按注册顺序返回所有工具定义
func (r *ToolRegistry) List() []types.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]types.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Descriptors 工具的 JSON Schema 描述
func (r *ToolRegistry) Descriptors() []types.ToolDescriptor {
	defs := r.List()
	out := make([]types.ToolDescriptor, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Descriptor())
	}
	return out
}

// Dispatch 校验参数并调用工具；工具不存在或参数错误时返回 *types.ToolError
func (r *ToolRegistry) Dispatch(ctx context.Context, name string, raw map[string]interface{}) (*types.Result, error) {
	ctx, span := r.tracer.Start(ctx, "tool.call", trace.WithAttributes(attribute.String("tool_name", name)))
	defer span.End()
	start := time.Now()

	r.mu.RLock()
	tool, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		err := types.NewUnknownToolError(name)
		span.SetStatus(codes.Error, "unknown_tool")
		zlog.Warn("MCP: unknown tool", zap.String("tool", name))
		return nil, err
	}

	args, err := tool.def.Validate(raw)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_argument")
		zlog.Warn("MCP: invalid arguments", zap.String("tool", name), zap.Error(err))
		return nil, err
	}

	zlog.Debug("MCP: calling tool", zap.String("tool", name), zap.Any("args", map[string]interface{}(args)))
	result, err := tool.handler(ctx, args)
	if err != nil {
		span.SetStatus(codes.Error, "handler_error")
		zlog.Error(fmt.Sprintf("MCP: Tool '%s' execution failed: %v", name, err))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", result.Success))
	if result.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "envelope_failure")
	}
	zlog.Debug("MCP: tool finished",
		zap.String("tool", name),
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Mount 将所有工具挂到 mcp-go Server 上
func (r *ToolRegistry) Mount(s *server.MCPServer) {
	for _, def := range r.List() {
		name := def.Name
		tool := mcp.NewToolWithRawSchema(name, def.Description, def.RawInputSchema())
		s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := r.Dispatch(ctx, name, request.GetArguments())
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(result.Text), nil
		})
	}
}
