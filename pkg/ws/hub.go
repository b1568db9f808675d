package ws

import (
	"encoding/json"
	"sync"
	"time"

	"DocMCP/pkg/zlog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AllChannels 订阅全部频道
const AllChannels = "*"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Hub 按频道分组的 websocket 连接
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.channel]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.channel] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	if c == nil || c.channel == "" {
		return
	}
	h.mu.Lock()
	set := h.clients[c.channel]
	if set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.channel)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) snapshot(channel string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients[channel])+len(h.clients[AllChannels]))
	for c := range h.clients[channel] {
		out = append(out, c)
	}
	if channel != AllChannels {
		for c := range h.clients[AllChannels] {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast 发给频道订阅者和全量订阅者，返回投递成功的连接数；缓冲区满的连接会被断开
func (h *Hub) Broadcast(channel string, payload []byte) int {
	if len(payload) == 0 {
		return 0
	}
	delivered := 0
	for _, c := range h.snapshot(channel) {
		if c.trySend(payload) {
			delivered++
			continue
		}
		zlog.Warn("ws client too slow, dropping", zap.String("channel", c.channel))
		h.Unregister(c)
	}
	return delivered
}

func (h *Hub) BroadcastJSON(channel string, v interface{}) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(channel, b), nil
}

// CloseAll 断开所有连接
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for c := range set {
			c.Close()
		}
	}
}

type Client struct {
	channel string
	conn    *websocket.Conn
	send    chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(channel string, conn *websocket.Conn) *Client {
	return &Client{
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
}

func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// WritePump 将 send 中的消息写到连接，并定期发送 ping
func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zlog.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump 丢弃客户端消息，连接断开时注销
func (c *Client) ReadPump(h *Hub) {
	defer h.Unregister(c)
	if c.conn == nil {
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
