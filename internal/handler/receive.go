package handler

import (
	"encoding/json"

	"CamelliaIM/internal/gateway"
	"CamelliaIM/internal/service"
	"CamelliaIM/pkg/errors"
	"CamelliaIM/pkg/mq"

	"github.com/sirupsen/logrus"
)

// 会话类型
const (
	TalkTypePrivate = 1 // 私聊
	TalkTypeGroup   = 2 // 群聊
)

// TalkPayload 聊天消息载荷
type TalkPayload struct {
	TalkType   int    `json:"talk_type"`
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"` // 私聊为对端用户ID，群聊为群ID
	MsgType    int    `json:"msg_type"`
	Content    string `json:"content"`
}

// KeyboardPayload 键盘输入提示载荷
type KeyboardPayload struct {
	SenderID   uint `json:"sender_id"`
	ReceiverID uint `json:"receiver_id"`
}

// RoomPayload 入房/退房载荷
type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// ReceiveHandler 注册网关的业务事件处理器
type ReceiveHandler struct {
	server   *gateway.Server
	rooms    *gateway.RoomRegistry
	producer mq.Producer
	members  *service.GroupMemberService

	// 聊天消息转投的主题，供落库消费方订阅
	talkTopic string
}

// NewReceiveHandler 创建业务事件处理器
func NewReceiveHandler(
	server *gateway.Server,
	rooms *gateway.RoomRegistry,
	producer mq.Producer,
	members *service.GroupMemberService,
	talkTopic string,
) *ReceiveHandler {
	return &ReceiveHandler{
		server:    server,
		rooms:     rooms,
		producer:  producer,
		members:   members,
		talkTopic: talkTopic,
	}
}

// Register 将全部事件挂到分发器上，启动阶段调用一次
func (h *ReceiveHandler) Register(d *gateway.EventDispatcher) {
	d.RegisterHandler(gateway.EventTalk, h.onTalk)
	d.RegisterHandler(gateway.EventKeyboard, h.onKeyboard)
	d.RegisterHandler(gateway.EventRoomJoin, h.onRoomJoin)
	d.RegisterHandler(gateway.EventRoomLeave, h.onRoomLeave)
}

// onTalk 处理聊天消息：按会话类型下发，并转投消息总线落库
func (h *ReceiveHandler) onTalk(ctx *gateway.EventContext) error {
	var payload TalkPayload
	if err := json.Unmarshal(ctx.Data, &payload); err != nil {
		return errors.WrapCode(errors.CodeMalformedFrame, err, "talk payload decode failed")
	}

	// 发送者以连接身份为准，不信任载荷
	payload.SenderID = ctx.UserID

	frame, err := encodeFrame(gateway.EventTalk, payload)
	if err != nil {
		return err
	}

	switch payload.TalkType {
	case TalkTypePrivate:
		h.server.SendToUser(payload.ReceiverID, frame)
		// 发送者其他在线端同步
		h.server.SendToUser(payload.SenderID, frame)
	case TalkTypeGroup:
		roomID := formatRoomID(payload.ReceiverID)
		h.server.SendToRoom(roomID, frame)
	default:
		return errors.Errorf("unsupported talk type %d", payload.TalkType)
	}

	if h.producer != nil {
		msg := mq.NewMessage(gateway.EventTalk, payload)
		if err := h.producer.Publish(ctx.Ctx, h.talkTopic, msg); err != nil {
			logrus.Errorf("聊天消息转投失败 sender=%d: %v", payload.SenderID, err)
		}
	}
	return nil
}

// onKeyboard 处理输入提示：仅透传给对端，不落库
func (h *ReceiveHandler) onKeyboard(ctx *gateway.EventContext) error {
	var payload KeyboardPayload
	if err := json.Unmarshal(ctx.Data, &payload); err != nil {
		return errors.WrapCode(errors.CodeMalformedFrame, err, "keyboard payload decode failed")
	}

	payload.SenderID = ctx.UserID

	frame, err := encodeFrame(gateway.EventKeyboard, payload)
	if err != nil {
		return err
	}
	h.server.SendToUser(payload.ReceiverID, frame)
	return nil
}

// onRoomJoin 处理入房订阅
func (h *ReceiveHandler) onRoomJoin(ctx *gateway.EventContext) error {
	var payload RoomPayload
	if err := json.Unmarshal(ctx.Data, &payload); err != nil {
		return errors.WrapCode(errors.CodeMalformedFrame, err, "room payload decode failed")
	}
	if payload.RoomID == "" {
		return errors.WithCode(errors.CodeMalformedFrame, "room payload missing room_id")
	}

	h.rooms.AddMember(payload.RoomID, ctx.UserID)
	if h.members != nil {
		// 群成员关系可能刚发生变化，下次握手重新查库
		h.members.Invalidate(ctx.Ctx, ctx.UserID)
	}
	return nil
}

// onRoomLeave 处理退房
func (h *ReceiveHandler) onRoomLeave(ctx *gateway.EventContext) error {
	var payload RoomPayload
	if err := json.Unmarshal(ctx.Data, &payload); err != nil {
		return errors.WrapCode(errors.CodeMalformedFrame, err, "room payload decode failed")
	}

	h.rooms.RemoveMember(payload.RoomID, ctx.UserID)
	if h.members != nil {
		h.members.Invalidate(ctx.Ctx, ctx.UserID)
	}
	return nil
}

// encodeFrame 编码下行帧
func encodeFrame(event string, data interface{}) ([]byte, error) {
	return json.Marshal(gateway.Frame{Event: event, Data: mustRaw(data)})
}

func mustRaw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

func formatRoomID(groupID uint) string {
	return service.GroupRoomID(groupID)
}
