package gateway

import (
	"fmt"
	"sync"
	"testing"

	"CamelliaIM/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceSingleDevice(t *testing.T) {
	r := NewConnectionRegistry()
	tracker := NewPresenceTracker(r, 8)

	tr, err := tracker.Connect("h1", 1)
	require.NoError(t, err)
	assert.Equal(t, WentOnline, tr)

	tr, userID := tracker.Disconnect("h1")
	assert.Equal(t, WentOffline, tr)
	assert.Equal(t, uint(1), userID)
	assert.False(t, r.IsUserOnline(1))
}

func TestPresenceMultiDevice(t *testing.T) {
	r := NewConnectionRegistry()
	tracker := NewPresenceTracker(r, 8)

	// 第一端上线产生迁移，第二端不产生
	tr, err := tracker.Connect("h1", 1)
	require.NoError(t, err)
	assert.Equal(t, WentOnline, tr)

	tr, err = tracker.Connect("h2", 1)
	require.NoError(t, err)
	assert.Equal(t, NoTransition, tr)

	// 先断一端仍在线，最后一端断开才离线
	tr, _ = tracker.Disconnect("h1")
	assert.Equal(t, NoTransition, tr)
	assert.True(t, r.IsUserOnline(1))

	tr, _ = tracker.Disconnect("h2")
	assert.Equal(t, WentOffline, tr)
	assert.False(t, r.IsUserOnline(1))
}

func TestPresenceDuplicateHandle(t *testing.T) {
	r := NewConnectionRegistry()
	tracker := NewPresenceTracker(r, 8)

	_, err := tracker.Connect("h1", 1)
	require.NoError(t, err)

	_, err = tracker.Connect("h1", 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAlreadyBound))

	// 绑定失败不影响原用户在线状态
	assert.True(t, r.IsUserOnline(1))
	assert.False(t, r.IsUserOnline(2))
}

func TestPresenceDisconnectUnknownHandle(t *testing.T) {
	r := NewConnectionRegistry()
	tracker := NewPresenceTracker(r, 8)

	tr, userID := tracker.Disconnect("missing")
	assert.Equal(t, NoTransition, tr)
	assert.Equal(t, uint(0), userID)

	// 重复断开同一句柄不产生第二次离线迁移
	_, err := tracker.Connect("h1", 1)
	require.NoError(t, err)
	tr, _ = tracker.Disconnect("h1")
	assert.Equal(t, WentOffline, tr)
	tr, _ = tracker.Disconnect("h1")
	assert.Equal(t, NoTransition, tr)
}

// 并发开关连接时同一用户的迁移必须严格交替：上线与离线次数
// 相差不超过1，且总量一致
func TestPresenceConcurrentAlternation(t *testing.T) {
	r := NewConnectionRegistry()
	tracker := NewPresenceTracker(r, 8)

	const workers = 20
	const rounds = 50

	var mu sync.Mutex
	online, offline := 0, 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				handle := fmt.Sprintf("w%d-r%d", w, i)
				tr, err := tracker.Connect(handle, 1)
				if !assert.NoError(t, err) {
					return
				}
				if tr == WentOnline {
					mu.Lock()
					online++
					mu.Unlock()
				}
				tr, _ = tracker.Disconnect(handle)
				if tr == WentOffline {
					mu.Lock()
					offline++
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	// 最终全部断开，上线与离线必须成对
	assert.False(t, r.IsUserOnline(1))
	assert.Equal(t, online, offline)
	assert.Greater(t, online, 0)
}
