package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message 投递到消息总线的统一信封
type Message struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	CreatedAt int64       `json:"created_at"`
}

// NewMessage 创建消息信封
func NewMessage(event string, data interface{}) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Event:     event,
		Data:      data,
		CreatedAt: time.Now().Unix(),
	}
}

// Encode 序列化消息
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Producer 消息总线生产者，网关只管投递不管消费
type Producer interface {
	// Publish 发布消息到指定主题
	Publish(ctx context.Context, topic string, msg *Message) error

	// Close 关闭生产者
	Close() error
}

// Config 生产者配置
type Config struct {
	// 驱动类型: "redis" 或 "kafka"
	Driver string `json:"driver" env:"MQ_DRIVER"`

	// Redis配置（pub/sub）
	RedisAddr     string `json:"redis_addr" env:"MQ_REDIS_ADDR"`
	RedisPassword string `json:"redis_password" env:"MQ_REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"MQ_REDIS_DB"`

	// Kafka配置
	KafkaBrokers []string `json:"kafka_brokers" env:"MQ_KAFKA_BROKERS"`
}
