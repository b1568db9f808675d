package cli

import (
	"DocMCP/internal/config"
	"DocMCP/internal/initial"
	"DocMCP/internal/modules/document/application/service"
	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	mcpServer "DocMCP/internal/modules/document/infrastructure/mcp/server"
	"DocMCP/pkg/ws"

	"github.com/mark3labs/mcp-go/server"
)

// App 进程内组装好的依赖
type App struct {
	Conf     *config.Config
	Store    *initial.DocumentStore
	Registry *registry.ToolRegistry
	Server   *server.MCPServer
	Hub      *ws.Hub
}

// NewApp 存储 -> 服务 -> 工具注册表 -> MCP Server
func NewApp(conf *config.Config) (*App, error) {
	var hub *ws.Hub
	if conf.MainConfig.ChangeFeed {
		hub = ws.NewHub()
	}
	store, err := initial.NewDocumentStore(conf, hub)
	if err != nil {
		return nil, err
	}

	svc := service.NewDocumentService(store.Repo, service.Options{
		DatabaseID:        conf.AppwriteConfig.DatabaseID,
		StrictUpsertProbe: conf.MCPConfig.StrictUpsertProbe,
	})

	builtin := mcpServer.BuiltinServerConfig{
		Name:            conf.MCPConfig.Name,
		Version:         conf.MCPConfig.Version,
		EnableDemoTools: conf.MCPConfig.EnableDemoTools,
	}
	reg, err := mcpServer.NewToolRegistry(builtin, mcpServer.BuiltinServerDependencies{DocumentSvc: svc})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Conf:     conf,
		Store:    store,
		Registry: reg,
		Server:   mcpServer.NewBuiltinMCPServer(builtin, reg),
		Hub:      hub,
	}, nil
}

// Close 释放存储资源
func (a *App) Close() {
	a.Store.Close()
}
