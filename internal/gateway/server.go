package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// Conn 表示一个已升级的WebSocket连接
type Conn struct {
	Handle   string
	Platform string
	ws       *websocket.Conn
	send     chan []byte
	server   *Server

	closeOnce sync.Once
}

// Server 负责连接升级、收发协程与消息下发
type Server struct {
	config     *Config
	controller *GatewayController
	registry   *ConnectionRegistry
	rooms      *RoomRegistry
	upgrader   websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*Conn

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer 创建网关服务
func NewServer(config *Config, controller *GatewayController, registry *ConnectionRegistry, rooms *RoomRegistry) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:     config,
		controller: controller,
		registry:   registry,
		rooms:      rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
			EnableCompression: config.EnableCompression,
		},
		conns:  make(map[string]*Conn),
		ctx:    ctx,
		cancel: cancel,
	}
}

// HandleWebSocket 升级连接并接入网关
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if int64(s.connCount()) >= s.config.MaxConnections {
		http.Error(w, "连接数已达到上限", http.StatusServiceUnavailable)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}

	handle := uuid.NewString()
	conn := &Conn{
		Handle:   handle,
		Platform: parsePlatform(r.UserAgent()),
		ws:       ws,
		send:     make(chan []byte, s.config.SendBufferSize),
		server:   s,
	}

	if _, err := s.controller.OnOpen(r.Context(), handle, token); err != nil {
		logrus.Warnf("握手拒绝 handle=%s: %v", handle, err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseCodeAuthFailed, "auth failed"),
			time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}

	s.mu.Lock()
	s.conns[handle] = conn
	s.mu.Unlock()

	logrus.Debugf("连接接入 handle=%s platform=%s", handle, conn.Platform)

	go conn.writePump()
	go conn.readPump()
}

// SendToHandle 向指定句柄投递消息
func (s *Server) SendToHandle(handle string, payload []byte) bool {
	s.mu.RLock()
	conn, ok := s.conns[handle]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return conn.enqueue(payload)
}

// SendToUser 向用户的全部在线端投递消息
func (s *Server) SendToUser(userID uint, payload []byte) int {
	sent := 0
	for _, handle := range s.registry.ListHandles(userID) {
		if s.SendToHandle(handle, payload) {
			sent++
		}
	}
	return sent
}

// SendToRoom 向房间全部成员投递消息，可排除发送者本人
func (s *Server) SendToRoom(roomID string, payload []byte, exclude ...uint) int {
	skip := make(map[uint]struct{}, len(exclude))
	for _, u := range exclude {
		skip[u] = struct{}{}
	}

	sent := 0
	for _, userID := range s.rooms.Members(roomID) {
		if _, ok := skip[userID]; ok {
			continue
		}
		sent += s.SendToUser(userID, payload)
	}
	return sent
}

// CloseHandle 主动断开指定句柄（踢端场景）
func (s *Server) CloseHandle(handle string, code int, reason string) {
	s.mu.RLock()
	conn, ok := s.conns[handle]
	s.mu.RUnlock()
	if !ok {
		return
	}
	_ = conn.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
	conn.close()
}

// Stats 运行期统计信息
func (s *Server) Stats() map[string]interface{} {
	return map[string]interface{}{
		"connections":  s.connCount(),
		"online_users": s.registry.OnlineUserCount(),
		"rooms":        s.rooms.RoomCount(),
		"events":       s.controller.dispatcher.Events(),
	}
}

// Shutdown 关闭全部连接
func (s *Server) Shutdown() {
	s.cancel()

	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseCodeServerShutdown, "server shutdown"),
			time.Now().Add(time.Second))
		c.close()
	}
}

func (s *Server) connCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// detach 从连接表移除并回调生命周期
func (s *Server) detach(conn *Conn) {
	s.mu.Lock()
	delete(s.conns, conn.Handle)
	s.mu.Unlock()

	s.controller.OnClose(context.Background(), conn.Handle)
}

// enqueue 投递到发送缓冲区，缓冲区满时丢弃
func (c *Conn) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		logrus.Warnf("发送缓冲区已满，丢弃消息 handle=%s", c.Handle)
		return false
	}
}

// close 只关闭底层连接，send通道留给GC回收，避免并发投递时写已关闭通道
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
	})
}

// readPump 读取消息的协程
func (c *Conn) readPump() {
	defer func() {
		c.server.detach(c)
		c.close()
	}()

	cfg := c.server.config
	c.ws.SetReadLimit(int64(cfg.MaxFrameSize))
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误 handle=%s: %v", c.Handle, err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))

		// 应用层心跳：只刷新读超时，不回包不进分发器
		if string(message) == HeartbeatPing {
			continue
		}

		c.server.controller.OnMessage(c.server.ctx, c.Handle, message)
	}
}

// writePump 发送消息的协程
func (c *Conn) writePump() {
	interval := c.server.config.HeartbeatInterval
	pingEvery := time.Duration(float64(interval) * 0.9)
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// 将队列中积压的消息一并刷出
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.ws.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parsePlatform 从User-Agent解析客户端平台
func parsePlatform(uaString string) string {
	if uaString == "" {
		return "unknown"
	}
	ua := user_agent.New(uaString)
	if ua.Mobile() {
		return "mobile"
	}
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	if name != "" {
		return "web"
	}
	return "unknown"
}
