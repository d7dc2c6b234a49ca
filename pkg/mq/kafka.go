package mq

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// kafkaProducer 基于Kafka的生产者
type kafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer 创建Kafka生产者，主题在Publish时指定
func NewKafkaProducer(config Config) (Producer, error) {
	if len(config.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.KafkaBrokers...),
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{writer: writer}, nil
}

// Publish 发布消息到Kafka主题，事件名作为分区键
func (p *kafkaProducer) Publish(ctx context.Context, topic string, msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Event),
		Value: data,
	})
}

// Close 关闭Kafka写入器
func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
