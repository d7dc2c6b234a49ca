package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisProducer 基于Redis pub/sub的生产者
type redisProducer struct {
	client *redis.Client
}

// NewRedisProducer 创建Redis生产者
func NewRedisProducer(config Config) (Producer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisProducer{client: client}, nil
}

// Publish 发布消息到Redis频道
func (p *redisProducer) Publish(ctx context.Context, topic string, msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return p.client.Publish(ctx, topic, data).Err()
}

// Close 关闭Redis连接
func (p *redisProducer) Close() error {
	return p.client.Close()
}
