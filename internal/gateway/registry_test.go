package gateway

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"CamelliaIM/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindAndLookup(t *testing.T) {
	r := NewConnectionRegistry()

	require.NoError(t, r.Bind("h1", 1))
	require.NoError(t, r.Bind("h2", 1))
	require.NoError(t, r.Bind("h3", 2))

	userID, ok := r.FindUserByHandle("h1")
	assert.True(t, ok)
	assert.Equal(t, uint(1), userID)

	_, ok = r.FindUserByHandle("missing")
	assert.False(t, ok)

	assert.True(t, r.IsUserOnline(1))
	assert.True(t, r.IsUserOnline(2))
	assert.False(t, r.IsUserOnline(3))

	handles := r.ListHandles(1)
	sort.Strings(handles)
	assert.Equal(t, []string{"h1", "h2"}, handles)

	assert.Equal(t, 3, r.ConnectionCount())
	assert.Equal(t, 2, r.OnlineUserCount())
}

func TestRegistryDuplicateBind(t *testing.T) {
	r := NewConnectionRegistry()

	require.NoError(t, r.Bind("h1", 1))

	// 同句柄换用户必须失败
	err := r.Bind("h1", 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAlreadyBound))

	// 同一(句柄,用户)对重复绑定幂等成功
	require.NoError(t, r.Bind("h1", 1))
	assert.Equal(t, 1, r.ConnectionCount())
	assert.Equal(t, []string{"h1"}, r.ListHandles(1))

	userID, ok := r.FindUserByHandle("h1")
	assert.True(t, ok)
	assert.Equal(t, uint(1), userID)
}

func TestRegistryUnbind(t *testing.T) {
	r := NewConnectionRegistry()

	require.NoError(t, r.Bind("h1", 1))
	require.NoError(t, r.Bind("h2", 1))

	r.Unbind("h1")
	assert.True(t, r.IsUserOnline(1))

	r.Unbind("h2")
	assert.False(t, r.IsUserOnline(1))
	assert.Empty(t, r.ListHandles(1))

	// 未知句柄与重复解绑静默返回
	r.Unbind("h2")
	r.Unbind("missing")
	assert.Equal(t, 0, r.ConnectionCount())
}

func TestRegistryConcurrentBindUnbind(t *testing.T) {
	r := NewConnectionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			handle := fmt.Sprintf("h%d", n)
			userID := uint(n % 5)
			assert.NoError(t, r.Bind(handle, userID))
			r.Unbind(handle)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.ConnectionCount())
	assert.Equal(t, 0, r.OnlineUserCount())
}
