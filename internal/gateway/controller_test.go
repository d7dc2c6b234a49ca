package gateway

import (
	"context"
	"sync"
	"testing"

	"CamelliaIM/pkg/errors"
	"CamelliaIM/pkg/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	users map[string]uint
}

func (f *fakeAuth) ResolveIdentity(token string) (uint, error) {
	if userID, ok := f.users[token]; ok {
		return userID, nil
	}
	return 0, errors.WithCode(errors.CodeAuthFailed, "bad token")
}

type fakeMembers struct {
	groups map[uint][]string
	err    error
}

func (f *fakeMembers) ListGroupIDsForUser(ctx context.Context, userID uint) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[userID], nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []*mq.Message
	topics   []string
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, msg *mq.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func (f *fakeProducer) statuses() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.messages))
	for _, m := range f.messages {
		payload, ok := m.Data.(OnlineStatusPayload)
		if !ok {
			continue
		}
		out = append(out, payload.Status)
	}
	return out
}

func newTestController(auth Authenticator, members GroupLister) (*GatewayController, *fakeProducer, *ConnectionRegistry, *RoomRegistry) {
	producer := &fakeProducer{}
	registry := NewConnectionRegistry()
	rooms := NewRoomRegistry()
	tracker := NewPresenceTracker(registry, 8)
	dispatcher := NewEventDispatcher(nil)
	publisher := NewPresencePublisher(producer, "im.online.status", nil)

	c := NewGatewayController(tracker, registry, rooms, dispatcher, publisher, auth, members, nil)
	return c, producer, registry, rooms
}

func TestControllerOpenCloseLifecycle(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	members := &fakeMembers{groups: map[uint][]string{1: {"10", "11"}}}
	c, producer, registry, rooms := newTestController(auth, members)

	ctx := context.Background()

	userID, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
	assert.True(t, registry.IsUserOnline(1))

	// 预加入所在群对应的房间
	assert.ElementsMatch(t, []string{"10", "11"}, rooms.RoomsForUser(1))

	// 上线事件已发布
	assert.Equal(t, []int{StatusOnline}, producer.statuses())
	assert.Equal(t, "im.online.status", producer.topics[0])
	assert.Equal(t, EventOnlineStatus, producer.messages[0].Event)

	c.OnClose(ctx, "h1")
	assert.False(t, registry.IsUserOnline(1))
	assert.Equal(t, []int{StatusOnline, StatusOffline}, producer.statuses())

	// 房间关系随用户不随连接，断开后保留
	assert.ElementsMatch(t, []string{"10", "11"}, rooms.RoomsForUser(1))
}

func TestControllerMultiDevicePublishOnce(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	c, producer, registry, _ := newTestController(auth, &fakeMembers{})

	ctx := context.Background()

	_, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)
	_, err = c.OnOpen(ctx, "h2", "tok1")
	require.NoError(t, err)

	// 第二端上线不再发布
	assert.Equal(t, []int{StatusOnline}, producer.statuses())

	c.OnClose(ctx, "h1")
	assert.True(t, registry.IsUserOnline(1))
	assert.Equal(t, []int{StatusOnline}, producer.statuses())

	c.OnClose(ctx, "h2")
	assert.False(t, registry.IsUserOnline(1))
	assert.Equal(t, []int{StatusOnline, StatusOffline}, producer.statuses())
}

func TestControllerAuthFailure(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{}}
	c, producer, registry, _ := newTestController(auth, &fakeMembers{})

	_, err := c.OnOpen(context.Background(), "h1", "bad")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAuthFailed))

	assert.Equal(t, 0, registry.ConnectionCount())
	assert.Empty(t, producer.statuses())
}

func TestControllerMemberLookupFailureNonFatal(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	members := &fakeMembers{err: errors.New("db down")}
	c, _, registry, rooms := newTestController(auth, members)

	// 群列表拉取失败不影响连接建立
	_, err := c.OnOpen(context.Background(), "h1", "tok1")
	require.NoError(t, err)
	assert.True(t, registry.IsUserOnline(1))
	assert.Empty(t, rooms.RoomsForUser(1))
}

func TestControllerMessageAfterClose(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	c, _, _, _ := newTestController(auth, &fakeMembers{})

	ctx := context.Background()
	_, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)
	c.OnClose(ctx, "h1")

	// 关闭后的帧静默丢弃，不panic不报错
	c.OnMessage(ctx, "h1", []byte(`{"event":"event_talk","data":{}}`))
	c.OnMessage(ctx, "missing", []byte("PING"))
}

func TestControllerDoubleCloseTolerated(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	c, producer, _, _ := newTestController(auth, &fakeMembers{})

	ctx := context.Background()
	_, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)

	c.OnClose(ctx, "h1")
	c.OnClose(ctx, "h1")
	c.OnClose(ctx, "never-existed")

	// 只有一次离线事件
	assert.Equal(t, []int{StatusOnline, StatusOffline}, producer.statuses())
}

func TestControllerDuplicateLoginHook(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	c, _, _, _ := newTestController(auth, &fakeMembers{})

	var hookUser uint
	var hookHandle string
	c.OnDuplicateLogin = func(userID uint, handle string) {
		hookUser = userID
		hookHandle = handle
	}

	ctx := context.Background()
	_, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)
	assert.Equal(t, uint(0), hookUser)

	_, err = c.OnOpen(ctx, "h2", "tok1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), hookUser)
	assert.Equal(t, "h2", hookHandle)
}

func TestControllerDispatchRoutesToHandler(t *testing.T) {
	auth := &fakeAuth{users: map[string]uint{"tok1": 1}}
	c, _, _, _ := newTestController(auth, &fakeMembers{})

	var gotUser uint
	c.dispatcher.RegisterHandler("event_test", func(ectx *EventContext) error {
		gotUser = ectx.UserID
		return nil
	})

	ctx := context.Background()
	_, err := c.OnOpen(ctx, "h1", "tok1")
	require.NoError(t, err)

	c.OnMessage(ctx, "h1", []byte(`{"event":"event_test","data":{}}`))
	assert.Equal(t, uint(1), gotUser)
}
