package gateway

import (
	"context"
	"time"

	"CamelliaIM/pkg/metrics"
	"CamelliaIM/pkg/mq"

	"github.com/sirupsen/logrus"
)

// OnlineStatusPayload 在线状态事件载荷
type OnlineStatusPayload struct {
	UserID uint `json:"user_id"`
	Status int  `json:"status"` // 1在线 0离线
}

// PresencePublisher 将在线状态迁移发布到消息总线
//
// 发布失败只记录日志并丢弃，连接生命周期不受总线可用性影响。
type PresencePublisher struct {
	producer mq.Producer
	topic    string
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// NewPresencePublisher 创建在线状态发布器
func NewPresencePublisher(producer mq.Producer, topic string, m *metrics.Metrics) *PresencePublisher {
	return &PresencePublisher{
		producer: producer,
		topic:    topic,
		metrics:  m,
		timeout:  3 * time.Second,
	}
}

// Publish 发布一次状态迁移，NoTransition 直接忽略
func (p *PresencePublisher) Publish(ctx context.Context, userID uint, transition Transition) {
	if transition == NoTransition || p.producer == nil {
		return
	}

	status := StatusOffline
	if transition == WentOnline {
		status = StatusOnline
	}

	msg := mq.NewMessage(EventOnlineStatus, OnlineStatusPayload{
		UserID: userID,
		Status: status,
	})

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.producer.Publish(pctx, p.topic, msg); err != nil {
		if p.metrics != nil {
			p.metrics.PresencePublishFailed()
		}
		logrus.Errorf("在线状态发布失败 user=%d status=%d: %v", userID, status, err)
		return
	}

	if p.metrics != nil {
		p.metrics.PresencePublished(transition.String())
	}
}
