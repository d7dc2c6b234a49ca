package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"CamelliaIM/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesFrame(t *testing.T) {
	d := NewEventDispatcher(nil)

	var got *EventContext
	d.RegisterHandler("event_test", func(ctx *EventContext) error {
		got = ctx
		return nil
	})

	raw := []byte(`{"event":"event_test","data":{"room_id":"42"}}`)
	err := d.Dispatch(context.Background(), "h1", 7, raw)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "h1", got.Handle)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "event_test", got.Event)
	assert.JSONEq(t, `{"room_id":"42"}`, string(got.Data))
}

func TestDispatcherHeartbeat(t *testing.T) {
	d := NewEventDispatcher(nil)

	called := false
	d.RegisterHandler("PING", func(ctx *EventContext) error {
		called = true
		return nil
	})

	// 心跳帧短路，不进任何处理器
	err := d.Dispatch(context.Background(), "h1", 1, []byte("PING"))
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestDispatcherMalformedFrame(t *testing.T) {
	d := NewEventDispatcher(nil)
	d.RegisterHandler("event_test", func(ctx *EventContext) error { return nil })

	cases := [][]byte{
		[]byte("not json"),
		[]byte(`{"data":{}}`),
		[]byte(`{"event":""}`),
		[]byte(`[]`),
	}
	for _, raw := range cases {
		err := d.Dispatch(context.Background(), "h1", 1, raw)
		require.Error(t, err, "raw=%s", raw)
		assert.True(t, errors.IsCode(err, errors.CodeMalformedFrame), "raw=%s", raw)
	}
}

func TestDispatcherUnknownEvent(t *testing.T) {
	d := NewEventDispatcher(nil)

	err := d.Dispatch(context.Background(), "h1", 1, []byte(`{"event":"event_nope","data":{}}`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownEvent))
}

func TestDispatcherHandlerErrorIsolated(t *testing.T) {
	d := NewEventDispatcher(nil)

	d.RegisterHandler("event_fail", func(ctx *EventContext) error {
		return errors.New("boom")
	})
	d.RegisterHandler("event_panic", func(ctx *EventContext) error {
		panic("boom")
	})
	d.RegisterHandler("event_ok", func(ctx *EventContext) error { return nil })

	// 处理器错误与panic都只丢当前帧，Dispatch本身不报错
	assert.NoError(t, d.Dispatch(context.Background(), "h1", 1, []byte(`{"event":"event_fail","data":{}}`)))
	assert.NoError(t, d.Dispatch(context.Background(), "h1", 1, []byte(`{"event":"event_panic","data":{}}`)))
	assert.NoError(t, d.Dispatch(context.Background(), "h1", 1, []byte(`{"event":"event_ok","data":{}}`)))
}

func TestDispatcherPayloadPassedVerbatim(t *testing.T) {
	d := NewEventDispatcher(nil)

	var got json.RawMessage
	d.RegisterHandler("event_talk", func(ctx *EventContext) error {
		got = ctx.Data
		return nil
	})

	payload := `{"talk_type":2,"receiver_id":10,"content":"你好"}`
	raw := []byte(`{"event":"event_talk","data":` + payload + `}`)
	require.NoError(t, d.Dispatch(context.Background(), "h1", 1, raw))
	assert.JSONEq(t, payload, string(got))
}

func TestDispatcherEvents(t *testing.T) {
	d := NewEventDispatcher(nil)
	d.RegisterHandler("a", func(ctx *EventContext) error { return nil })
	d.RegisterHandler("b", func(ctx *EventContext) error { return nil })

	assert.ElementsMatch(t, []string{"a", "b"}, d.Events())
}
