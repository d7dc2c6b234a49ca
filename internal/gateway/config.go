package gateway

import (
	"fmt"
	"time"

	"CamelliaIM/pkg/util"
)

// Config 网关运行配置
type Config struct {
	// 最大连接数
	MaxConnections int64
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 连接超时时间
	ConnectionTimeout time.Duration
	// 单连接发送缓冲区长度
	SendBufferSize int
	// 读缓冲区大小
	ReadBufferSize int
	// 写缓冲区大小
	WriteBufferSize int
	// 单帧最大字节数
	MaxFrameSize int
	// 在线状态分段锁数量
	PresenceStripes int
	// 是否启用压缩
	EnableCompression bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:    DefaultMaxConnections,
		HeartbeatInterval: DefaultHeartbeatInterval * time.Second,
		ConnectionTimeout: DefaultConnectionTimeout * time.Second,
		SendBufferSize:    DefaultSendBufferSize,
		ReadBufferSize:    DefaultReadBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		MaxFrameSize:      DefaultMaxFrameSize,
		PresenceStripes:   DefaultPresenceStripes,
		EnableCompression: false,
	}
}

// LoadConfigFromEnv 从环境变量加载网关配置
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if maxConnections := util.GetIntEnv(EnvGatewayMaxConnections); maxConnections > 0 {
		config.MaxConnections = maxConnections
	}

	if heartbeatInterval := util.GetIntEnv(EnvGatewayHeartbeatInterval); heartbeatInterval > 0 {
		config.HeartbeatInterval = time.Duration(heartbeatInterval) * time.Second
	}

	if connectionTimeout := util.GetIntEnv(EnvGatewayConnectionTimeout); connectionTimeout > 0 {
		config.ConnectionTimeout = time.Duration(connectionTimeout) * time.Second
	}

	if sendBuf := util.GetIntEnv(EnvGatewaySendBufferSize); sendBuf > 0 {
		config.SendBufferSize = int(sendBuf)
	}

	if readBuf := util.GetIntEnv(EnvGatewayReadBufferSize); readBuf > 0 {
		config.ReadBufferSize = int(readBuf)
	}

	if writeBuf := util.GetIntEnv(EnvGatewayWriteBufferSize); writeBuf > 0 {
		config.WriteBufferSize = int(writeBuf)
	}

	if maxFrame := util.GetIntEnv(EnvGatewayMaxFrameSize); maxFrame > 0 {
		config.MaxFrameSize = int(maxFrame)
	}

	if stripes := util.GetIntEnv(EnvGatewayPresenceStripes); stripes > 0 {
		config.PresenceStripes = int(stripes)
	}

	if enableCompression := util.GetEnv(EnvGatewayEnableCompression); enableCompression != "" {
		config.EnableCompression = enableCompression == "true" || enableCompression == "1"
	}

	return config
}

// ValidateConfig 验证网关配置
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if config.MaxConnections <= 0 {
		return fmt.Errorf("最大连接数必须大于0")
	}

	if config.HeartbeatInterval <= 0 {
		return fmt.Errorf("心跳间隔必须大于0")
	}

	if config.ConnectionTimeout <= 0 {
		return fmt.Errorf("连接超时时间必须大于0")
	}

	// 心跳间隔应该小于连接超时时间
	if config.HeartbeatInterval >= config.ConnectionTimeout {
		return fmt.Errorf("心跳间隔必须小于连接超时时间")
	}

	if config.SendBufferSize <= 0 {
		return fmt.Errorf("发送缓冲区长度必须大于0")
	}

	if config.ReadBufferSize <= 0 || config.WriteBufferSize <= 0 {
		return fmt.Errorf("读/写缓冲区大小必须大于0")
	}

	if config.MaxFrameSize <= 0 {
		return fmt.Errorf("最大帧大小必须大于0")
	}

	if config.PresenceStripes <= 0 {
		return fmt.Errorf("分段锁数量必须大于0")
	}

	return nil
}
