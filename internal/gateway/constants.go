package gateway

// 网关事件与协议常量
const (
	// 心跳帧为裸文本，不走JSON解析也不回包
	HeartbeatPing = "PING"

	// 系统事件类型
	EventOnlineStatus = "event_online_status"
	EventError        = "event_error"

	// 业务事件类型
	EventTalk      = "event_talk"
	EventKeyboard  = "event_keyboard"
	EventRoomJoin  = "event_room_join"
	EventRoomLeave = "event_room_leave"

	// 在线状态值
	StatusOnline  = 1
	StatusOffline = 0

	// 默认配置值
	DefaultMaxConnections    = 100000
	DefaultHeartbeatInterval = 30
	DefaultConnectionTimeout = 60
	DefaultSendBufferSize    = 256
	DefaultReadBufferSize    = 1024
	DefaultWriteBufferSize   = 1024
	DefaultMaxFrameSize      = 65536
	DefaultPresenceStripes   = 64

	// 环境变量配置键
	EnvGatewayMaxConnections    = "GATEWAY_MAX_CONNECTIONS"
	EnvGatewayHeartbeatInterval = "GATEWAY_HEARTBEAT_INTERVAL"
	EnvGatewayConnectionTimeout = "GATEWAY_CONNECTION_TIMEOUT"
	EnvGatewaySendBufferSize    = "GATEWAY_SEND_BUFFER_SIZE"
	EnvGatewayReadBufferSize    = "GATEWAY_READ_BUFFER_SIZE"
	EnvGatewayWriteBufferSize   = "GATEWAY_WRITE_BUFFER_SIZE"
	EnvGatewayMaxFrameSize      = "GATEWAY_MAX_FRAME_SIZE"
	EnvGatewayPresenceStripes   = "GATEWAY_PRESENCE_STRIPES"
	EnvGatewayEnableCompression = "GATEWAY_ENABLE_COMPRESSION"

	// 路由路径
	RouteWebSocket       = "/ws"
	RouteWebSocketStats  = "/ws/stats"
	RouteWebSocketHealth = "/ws/health"

	// 关闭码（4000段为应用自定义）
	CloseCodeAuthFailed     = 4001
	CloseCodeServerShutdown = 4002
)
