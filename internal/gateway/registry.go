package gateway

import (
	"sync"

	"CamelliaIM/pkg/errors"
)

// ConnectionRegistry 维护连接句柄与用户的双向映射
//
// 同一用户允许多端同时在线，每个句柄只能绑定一次。
type ConnectionRegistry struct {
	mu sync.RWMutex

	// 句柄 -> 用户ID
	handleUser map[string]uint

	// 用户ID -> 句柄集合
	userHandles map[uint]map[string]struct{}
}

// NewConnectionRegistry 创建连接注册表
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		handleUser:  make(map[string]uint),
		userHandles: make(map[uint]map[string]struct{}),
	}
}

// Bind 绑定句柄到用户
//
// 同一(句柄,用户)对重复绑定幂等成功，句柄被其他用户占用时报错。
func (r *ConnectionRegistry) Bind(handle string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, ok := r.handleUser[handle]; ok {
		if bound == userID {
			return nil
		}
		return errors.WithCodef(errors.CodeAlreadyBound, "handle %s already bound to user %d", handle, bound)
	}

	r.handleUser[handle] = userID
	handles, ok := r.userHandles[userID]
	if !ok {
		handles = make(map[string]struct{})
		r.userHandles[userID] = handles
	}
	handles[handle] = struct{}{}
	return nil
}

// Unbind 解绑句柄，句柄不存在时静默返回
func (r *ConnectionRegistry) Unbind(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.handleUser[handle]
	if !ok {
		return
	}
	delete(r.handleUser, handle)

	if handles, ok := r.userHandles[userID]; ok {
		delete(handles, handle)
		if len(handles) == 0 {
			delete(r.userHandles, userID)
		}
	}
}

// FindUserByHandle 查询句柄绑定的用户
func (r *ConnectionRegistry) FindUserByHandle(handle string) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.handleUser[handle]
	return userID, ok
}

// IsUserOnline 判断用户是否还有存活连接
func (r *ConnectionRegistry) IsUserOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.userHandles[userID]) > 0
}

// ListHandles 返回用户全部句柄的快照
func (r *ConnectionRegistry) ListHandles(userID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := r.userHandles[userID]
	if len(handles) == 0 {
		return nil
	}
	out := make([]string, 0, len(handles))
	for h := range handles {
		out = append(out, h)
	}
	return out
}

// ConnectionCount 当前绑定的句柄总数
func (r *ConnectionRegistry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handleUser)
}

// OnlineUserCount 当前在线的用户数
func (r *ConnectionRegistry) OnlineUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.userHandles)
}
