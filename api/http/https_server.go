package http

import (
	"net/http"
	"strconv"
	"strings"

	"DocMCP/internal/config"
	jwtMiddleware "DocMCP/internal/middleware/jwt"
	"DocMCP/internal/middleware/requestid"
	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	toolHandler "DocMCP/internal/modules/document/interface/http"
	feedHandler "DocMCP/internal/modules/document/interface/websocket"
	"DocMCP/pkg/ssl"
	"DocMCP/pkg/util/myjwt"
	"DocMCP/pkg/ws"
	"DocMCP/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// 路由路径
const (
	PathMCP     = "/mcp"
	PathSSE     = "/sse"
	PathMessage = "/message"
	PathHealth  = "/healthz"
	PathFeed    = "/ws/documents"
)

// NewRouter 组装 gin 引擎：MCP streamable HTTP、SSE 两种传输以及 REST 调试接口
// hub 为 nil 时不开放变更推送
func NewRouter(conf *config.Config, reg *registry.ToolRegistry, mcpServer *server.MCPServer, hub *ws.Hub) *gin.Engine {
	GE := gin.New()
	GE.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.MainConfig.CorsOrigins
	if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization",
		requestid.HeaderName, "Mcp-Session-Id", "Mcp-Protocol-Version"}
	corsConfig.ExposeHeaders = []string{requestid.HeaderName, "Mcp-Session-Id"}
	GE.Use(cors.New(corsConfig))
	GE.Use(requestid.New())
	if conf.MainConfig.TLSRedirect {
		GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	GE.GET(PathHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	streamable := server.NewStreamableHTTPServer(mcpServer)
	sse := server.NewSSEServer(mcpServer, server.WithBaseURL(baseURL(conf)))
	toolH := toolHandler.NewToolHandler(reg)

	signer := myjwt.NewSigner(conf.JwtConfig, conf.MainConfig.AppName)
	if hub != nil {
		GE.GET(PathFeed, feedHandler.NewFeedHandler(hub, signer).Connect)
	}

	authed := GE.Group("/")
	if signer.Enabled() {
		authed.Use(jwtMiddleware.Auth(signer))
		zlog.Info("bearer auth enabled for MCP and /api routes")
	}

	authed.Any(PathMCP, gin.WrapH(streamable))
	authed.GET(PathSSE, gin.WrapH(sse.SSEHandler()))
	authed.POST(PathMessage, gin.WrapH(sse.MessageHandler()))
	authed.GET("/api/tools", toolH.ListTools)
	authed.POST("/api/tools/:name", toolH.CallTool)

	zlog.Info("routes registered",
		zap.Strings("mcp", []string{PathMCP, PathSSE, PathMessage}),
		zap.Int("tools", len(reg.List())))
	return GE
}

// baseURL SSE endpoint 事件中返回给客户端的地址前缀
func baseURL(conf *config.Config) string {
	if u := strings.TrimSpace(conf.MCPConfig.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	host := conf.MainConfig.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	scheme := "http"
	if conf.MainConfig.TLSRedirect {
		scheme = "https"
	}
	return scheme + "://" + host + ":" + strconv.Itoa(conf.MainConfig.Port)
}
