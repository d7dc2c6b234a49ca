package mq

import (
	"fmt"
	"strings"
)

// NewProducer 创建生产者实例
func NewProducer(config Config) (Producer, error) {
	switch strings.ToLower(config.Driver) {
	case "", "redis":
		return NewRedisProducer(config)
	case "kafka":
		return NewKafkaProducer(config)
	default:
		return nil, fmt.Errorf("unsupported mq driver: %s", config.Driver)
	}
}
