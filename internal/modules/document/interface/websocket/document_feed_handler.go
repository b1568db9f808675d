package websocket

import (
	"net/http"
	"strings"

	"DocMCP/pkg/util/myjwt"
	"DocMCP/pkg/ws"
	"DocMCP/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler 文档变更推送
type FeedHandler struct {
	hub    *ws.Hub
	signer *myjwt.Signer
}

// NewFeedHandler signer 未启用时不校验 token
func NewFeedHandler(hub *ws.Hub, signer *myjwt.Signer) *FeedHandler {
	return &FeedHandler{hub: hub, signer: signer}
}

// Connect GET /ws/documents?collectionId=xxx&token=xxx，不带 collectionId 时订阅全部集合
func (h *FeedHandler) Connect(c *gin.Context) {
	// 浏览器原生 WebSocket 不能带 Authorization 头，token 走 query
	if h.signer != nil && h.signer.Enabled() {
		if _, err := h.signer.ParseToken(c.Query("token")); err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	channel := strings.TrimSpace(c.Query("collectionId"))
	if channel == "" {
		channel = ws.AllChannels
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(channel, conn)
	h.hub.Register(client)
	zlog.Debug("ws feed subscribed", zap.String("channel", channel))
	go client.WritePump()
	client.ReadPump(h.hub)
}
