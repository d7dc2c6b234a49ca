package gateway

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomAddAndRemove(t *testing.T) {
	r := NewRoomRegistry()

	r.AddMember("room1", 1)
	r.AddMember("room1", 2)
	r.AddMember("room2", 1)

	members := r.Members("room1")
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	assert.Equal(t, []uint{1, 2}, members)

	rooms := r.RoomsForUser(1)
	sort.Strings(rooms)
	assert.Equal(t, []string{"room1", "room2"}, rooms)

	assert.Equal(t, 2, r.RoomCount())

	r.RemoveMember("room1", 1)
	assert.Equal(t, []uint{2}, r.Members("room1"))
	assert.Equal(t, []string{"room2"}, r.RoomsForUser(1))
}

func TestRoomIdempotent(t *testing.T) {
	r := NewRoomRegistry()

	// 重复加入不产生重复成员
	r.AddMember("room1", 1)
	r.AddMember("room1", 1)
	assert.Equal(t, []uint{1}, r.Members("room1"))

	// 不在房间时移除静默返回
	r.RemoveMember("room1", 99)
	r.RemoveMember("missing", 1)
	assert.Equal(t, []uint{1}, r.Members("room1"))

	// 空房间ID忽略
	r.AddMember("", 1)
	assert.Equal(t, 1, r.RoomCount())
}

func TestRoomEmptyRoomReclaimed(t *testing.T) {
	r := NewRoomRegistry()

	r.AddMember("room1", 1)
	r.RemoveMember("room1", 1)

	assert.Equal(t, 0, r.RoomCount())
	assert.Empty(t, r.Members("room1"))
	assert.Empty(t, r.RoomsForUser(1))
}

func TestRoomSweep(t *testing.T) {
	r := NewRoomRegistry()

	r.AddMember("room1", 1)
	r.AddMember("room2", 2)
	r.RemoveMember("room2", 2)

	// 正常路径下空房间已即时回收，Sweep兜底为0
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.RoomCount())
}
