package handler

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/types"
)

// 玩家名最大长度（按字符数计）
const maxNameLength = 24

// handleJoin 处理加入请求。
// 口令不对直接拒绝；名字对应离线座位时走重连路径。
func (h *Handler) handleJoin(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if payload.Code != h.accessCode {
		log.Printf("🚫 口令错误，拒绝加入 (ID: %s)", client.GetID())
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnauthorized))
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "名字为空或过长"))
		return
	}

	joined, err := h.room.Register(client, name)
	if err != nil {
		sendError(client, err)
		return
	}

	h.sessionManager.Track(name)

	client.SendMessage(codec.MustNewMessage(protocol.MsgJoined, joined))
}

// handleLeave 处理主动离开：释放座位并结束会话
func (h *Handler) handleLeave(client types.ClientInterface) {
	name, ok := h.requireJoined(client)
	if !ok {
		return
	}

	if outcome := h.room.Remove(name); outcome != nil {
		h.RecordOutcome(outcome)
	}
	h.sessionManager.Delete(name)
	client.SetName("")
}

// handleKick 处理踢人。不限制发起者（沿用无房主设计）。
func (h *Handler) handleKick(client types.ClientInterface, msg *protocol.Message) {
	by, ok := h.requireJoined(client)
	if !ok {
		return
	}

	payload, err := codec.ParsePayload[protocol.KickPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	outcome, err := h.room.Kick(by, payload.Target)
	if err != nil {
		sendError(client, err)
		return
	}

	h.sessionManager.Delete(payload.Target)
	if outcome != nil {
		h.RecordOutcome(outcome)
	}
}
