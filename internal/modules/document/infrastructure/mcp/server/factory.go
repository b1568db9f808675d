package server

import (
	"DocMCP/internal/modules/document/application/service"
	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	mcpHandlers "DocMCP/internal/modules/document/infrastructure/mcp/server/handlers"

	"github.com/mark3labs/mcp-go/server"
)

// BuiltinServerConfig 内置服务器配置
type BuiltinServerConfig struct {
	Name            string
	Version         string
	EnableDemoTools bool
}

// BuiltinServerDependencies 内置服务器依赖
type BuiltinServerDependencies struct {
	DocumentSvc service.DocumentService
	Registry    *registry.ToolRegistry
}

// NewToolRegistry 按配置注册全部工具
func NewToolRegistry(conf BuiltinServerConfig, deps BuiltinServerDependencies) (*registry.ToolRegistry, error) {
	reg := deps.Registry
	if reg == nil {
		reg = registry.NewToolRegistry()
	}

	if deps.DocumentSvc != nil {
		if err := mcpHandlers.NewDocumentToolHandler(deps.DocumentSvc).RegisterTools(reg); err != nil {
			return nil, err
		}
	}

	if conf.EnableDemoTools {
		if err := mcpHandlers.NewCourseToolHandler().RegisterTools(reg); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// NewBuiltinMCPServer 创建并配置内置 MCP Server
func NewBuiltinMCPServer(conf BuiltinServerConfig, reg *registry.ToolRegistry) *server.MCPServer {
	s := server.NewMCPServer(
		conf.Name,
		conf.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	reg.Mount(s)
	return s
}
