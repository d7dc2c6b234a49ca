package gateway

import "sync"

// RoomRegistry 维护房间与用户的成员关系
//
// 房间是纯粹的路由分组，不做权限校验。空房间在成员
// 移除时立即回收，Sweep 兜底清理定时任务遗留的空集合。
type RoomRegistry struct {
	mu sync.RWMutex

	// 房间ID -> 用户集合
	roomUsers map[string]map[uint]struct{}

	// 用户ID -> 房间集合
	userRooms map[uint]map[string]struct{}
}

// NewRoomRegistry 创建房间注册表
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		roomUsers: make(map[string]map[uint]struct{}),
		userRooms: make(map[uint]map[string]struct{}),
	}
}

// AddMember 将用户加入房间，重复加入不报错
func (r *RoomRegistry) AddMember(roomID string, userID uint) {
	if roomID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.roomUsers[roomID]
	if !ok {
		users = make(map[uint]struct{})
		r.roomUsers[roomID] = users
	}
	users[userID] = struct{}{}

	rooms, ok := r.userRooms[userID]
	if !ok {
		rooms = make(map[string]struct{})
		r.userRooms[userID] = rooms
	}
	rooms[roomID] = struct{}{}
}

// RemoveMember 将用户移出房间，不在房间时静默返回
func (r *RoomRegistry) RemoveMember(roomID string, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if users, ok := r.roomUsers[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.roomUsers, roomID)
		}
	}

	if rooms, ok := r.userRooms[userID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.userRooms, userID)
		}
	}
}

// Members 返回房间成员的快照，房间不存在时返回空切片
func (r *RoomRegistry) Members(roomID string) []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := r.roomUsers[roomID]
	if len(users) == 0 {
		return nil
	}
	out := make([]uint, 0, len(users))
	for u := range users {
		out = append(out, u)
	}
	return out
}

// RoomsForUser 返回用户所在房间的快照
func (r *RoomRegistry) RoomsForUser(userID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := r.userRooms[userID]
	if len(rooms) == 0 {
		return nil
	}
	out := make([]string, 0, len(rooms))
	for roomID := range rooms {
		out = append(out, roomID)
	}
	return out
}

// RoomCount 当前非空房间数
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.roomUsers)
}

// Sweep 清理空房间与空用户集合，返回清理数量（定时任务调用）
func (r *RoomRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for roomID, users := range r.roomUsers {
		if len(users) == 0 {
			delete(r.roomUsers, roomID)
			removed++
		}
	}
	for userID, rooms := range r.userRooms {
		if len(rooms) == 0 {
			delete(r.userRooms, userID)
		}
	}
	return removed
}
