package gateway

import (
	"context"

	"CamelliaIM/pkg/errors"
	"CamelliaIM/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Authenticator 握手令牌解析
type Authenticator interface {
	ResolveIdentity(token string) (uint, error)
}

// GroupLister 查询用户所在群（房间预加入用）
type GroupLister interface {
	ListGroupIDsForUser(ctx context.Context, userID uint) ([]string, error)
}

// GatewayController 串联连接生命周期的各个阶段
type GatewayController struct {
	tracker    *PresenceTracker
	registry   *ConnectionRegistry
	rooms      *RoomRegistry
	dispatcher *EventDispatcher
	publisher  *PresencePublisher
	auth       Authenticator
	members    GroupLister
	metrics    *metrics.Metrics

	// OnDuplicateLogin 同一用户新增连接时的可选回调（如踢旧端、通知）
	OnDuplicateLogin func(userID uint, handle string)
}

// NewGatewayController 创建网关控制器
func NewGatewayController(
	tracker *PresenceTracker,
	registry *ConnectionRegistry,
	rooms *RoomRegistry,
	dispatcher *EventDispatcher,
	publisher *PresencePublisher,
	auth Authenticator,
	members GroupLister,
	m *metrics.Metrics,
) *GatewayController {
	return &GatewayController{
		tracker:    tracker,
		registry:   registry,
		rooms:      rooms,
		dispatcher: dispatcher,
		publisher:  publisher,
		auth:       auth,
		members:    members,
		metrics:    m,
	}
}

// OnOpen 处理新连接：认证、绑定、状态发布、房间预加入
//
// 认证或绑定失败时连接应被调用方关闭；房间预加入失败不影响
// 连接建立，用户可通过入房事件补救。
func (c *GatewayController) OnOpen(ctx context.Context, handle, token string) (uint, error) {
	userID, err := c.auth.ResolveIdentity(token)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ConnRejected()
		}
		return 0, errors.WrapCode(errors.CodeAuthFailed, err, "handshake auth failed")
	}

	transition, err := c.tracker.Connect(handle, userID)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ConnRejected()
		}
		return 0, err
	}

	if transition == NoTransition && c.OnDuplicateLogin != nil {
		c.OnDuplicateLogin(userID, handle)
	}

	c.publisher.Publish(ctx, userID, transition)

	if c.members != nil {
		groupIDs, err := c.members.ListGroupIDsForUser(ctx, userID)
		if err != nil {
			logrus.Warnf("拉取用户群列表失败 user=%d: %v", userID, err)
		} else {
			for _, roomID := range groupIDs {
				c.rooms.AddMember(roomID, userID)
			}
		}
	}

	if c.metrics != nil {
		c.metrics.ConnOpened()
		c.metrics.SetUsersOnline(c.registry.OnlineUserCount())
		c.metrics.SetRoomsActive(c.rooms.RoomCount())
	}

	logrus.Infof("连接建立 handle=%s user=%d transition=%s", handle, userID, transition)
	return userID, nil
}

// OnMessage 处理入站帧
//
// 句柄已被并发关闭时静默丢弃，属于正常竞态不算错误。
func (c *GatewayController) OnMessage(ctx context.Context, handle string, raw []byte) {
	userID, ok := c.registry.FindUserByHandle(handle)
	if !ok {
		return
	}

	if err := c.dispatcher.Dispatch(ctx, handle, userID, raw); err != nil {
		logrus.Warnf("帧被丢弃 handle=%s user=%d: %v", handle, userID, err)
	}
}

// OnClose 处理连接断开，对未知句柄与重复关闭保持宽容
func (c *GatewayController) OnClose(ctx context.Context, handle string) {
	transition, userID := c.tracker.Disconnect(handle)
	if userID == 0 {
		return
	}

	// 房间关系随用户不随连接，断开不清理，退房只走显式事件
	c.publisher.Publish(ctx, userID, transition)

	if c.metrics != nil {
		c.metrics.ConnClosed()
		c.metrics.SetUsersOnline(c.registry.OnlineUserCount())
		c.metrics.SetRoomsActive(c.rooms.RoomCount())
	}

	logrus.Infof("连接断开 handle=%s user=%d transition=%s", handle, userID, transition)
}
