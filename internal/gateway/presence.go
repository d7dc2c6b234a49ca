package gateway

import "sync"

// Transition 在线状态迁移结果
type Transition int

const (
	// NoTransition 状态未变化（多端在线的中间态）
	NoTransition Transition = iota
	// WentOnline 用户首个连接建立
	WentOnline
	// WentOffline 用户最后一个连接断开
	WentOffline
)

func (t Transition) String() string {
	switch t {
	case WentOnline:
		return "online"
	case WentOffline:
		return "offline"
	default:
		return "none"
	}
}

// PresenceTracker 跟踪用户级在线状态迁移
//
// 绑定/解绑与前后在线判断必须是同一临界区，否则同一用户
// 多端并发开关连接时会产生乱序或重复的状态事件。锁按用户
// 分段，不同用户的迁移互不阻塞。
type PresenceTracker struct {
	registry *ConnectionRegistry
	stripes  []sync.Mutex
}

// NewPresenceTracker 创建在线状态跟踪器
func NewPresenceTracker(registry *ConnectionRegistry, stripeCount int) *PresenceTracker {
	if stripeCount <= 0 {
		stripeCount = DefaultPresenceStripes
	}
	return &PresenceTracker{
		registry: registry,
		stripes:  make([]sync.Mutex, stripeCount),
	}
}

func (t *PresenceTracker) stripe(userID uint) *sync.Mutex {
	return &t.stripes[userID%uint(len(t.stripes))]
}

// Connect 绑定句柄并返回状态迁移结果
func (t *PresenceTracker) Connect(handle string, userID uint) (Transition, error) {
	mu := t.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	wasOnline := t.registry.IsUserOnline(userID)
	if err := t.registry.Bind(handle, userID); err != nil {
		return NoTransition, err
	}
	if wasOnline {
		return NoTransition, nil
	}
	return WentOnline, nil
}

// Disconnect 解绑句柄并返回状态迁移结果
//
// 句柄未绑定时返回 NoTransition，不报错。
func (t *PresenceTracker) Disconnect(handle string) (Transition, uint) {
	userID, ok := t.registry.FindUserByHandle(handle)
	if !ok {
		return NoTransition, 0
	}

	mu := t.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	// 拿到分段锁后重新确认，句柄可能已被并发解绑
	if _, ok := t.registry.FindUserByHandle(handle); !ok {
		return NoTransition, userID
	}

	t.registry.Unbind(handle)
	if t.registry.IsUserOnline(userID) {
		return NoTransition, userID
	}
	return WentOffline, userID
}
