package gateway

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"CamelliaIM/pkg/errors"
	"CamelliaIM/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Frame 入站协议帧
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventContext 传递给事件处理器的上下文
type EventContext struct {
	Ctx    context.Context
	Handle string
	UserID uint
	Event  string
	Data   json.RawMessage
}

// EventHandler 事件处理函数
type EventHandler func(ctx *EventContext) error

// EventDispatcher 按事件名路由入站帧
//
// 处理器表在启动阶段注册完毕，运行期只读，不加锁。
type EventDispatcher struct {
	handlers map[string]EventHandler
	metrics  *metrics.Metrics
}

// NewEventDispatcher 创建事件分发器
func NewEventDispatcher(m *metrics.Metrics) *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string]EventHandler),
		metrics:  m,
	}
}

// RegisterHandler 注册事件处理器，重复注册后者覆盖前者
func (d *EventDispatcher) RegisterHandler(event string, handler EventHandler) {
	if event == "" || handler == nil {
		return
	}
	if _, ok := d.handlers[event]; ok {
		logrus.Warnf("事件处理器被覆盖: %s", event)
	}
	d.handlers[event] = handler
}

// Events 已注册的事件名列表
func (d *EventDispatcher) Events() []string {
	out := make([]string, 0, len(d.handlers))
	for event := range d.handlers {
		out = append(out, event)
	}
	return out
}

// Dispatch 解析并路由一帧
//
// 心跳帧直接短路返回。解析失败与未知事件丢弃当前帧并返回
// 对应错误码，处理器错误和panic同样只影响当前帧。
func (d *EventDispatcher) Dispatch(ctx context.Context, handle string, userID uint, raw []byte) error {
	if d.metrics != nil {
		d.metrics.ObserveFrameSize(len(raw))
	}

	if string(raw) == HeartbeatPing {
		return nil
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		if d.metrics != nil {
			d.metrics.FrameDiscarded("malformed")
		}
		return errors.WrapCode(errors.CodeMalformedFrame, err, "frame decode failed")
	}
	if frame.Event == "" {
		if d.metrics != nil {
			d.metrics.FrameDiscarded("malformed")
		}
		return errors.WithCode(errors.CodeMalformedFrame, "frame missing event field")
	}

	handler, ok := d.handlers[frame.Event]
	if !ok {
		if d.metrics != nil {
			d.metrics.FrameDiscarded("unknown_event")
		}
		return errors.WithCodef(errors.CodeUnknownEvent, "no handler for event %s", frame.Event)
	}

	if err := d.invoke(handler, &EventContext{
		Ctx:    ctx,
		Handle: handle,
		UserID: userID,
		Event:  frame.Event,
		Data:   frame.Data,
	}); err != nil {
		if d.metrics != nil {
			d.metrics.FrameDiscarded("handler_error")
		}
		logrus.Errorf("事件处理失败 event=%s user=%d: %v", frame.Event, userID, err)
		return nil
	}

	if d.metrics != nil {
		d.metrics.FrameDispatched(frame.Event)
	}
	return nil
}

// invoke 执行处理器并隔离panic
func (d *EventDispatcher) invoke(handler EventHandler, ectx *EventContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("事件处理器panic event=%s: %v\n%s", ectx.Event, r, debug.Stack())
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ectx)
}
