package handler

import (
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/types"
)

// handleStart 处理开始游戏。任何已加入的玩家都可以触发。
func (h *Handler) handleStart(client types.ClientInterface) {
	if _, ok := h.requireJoined(client); !ok {
		return
	}

	if err := h.room.Start(); err != nil {
		sendError(client, err)
	}
}

// handleVote 处理投票。凑齐一轮后异步记录统计。
func (h *Handler) handleVote(client types.ClientInterface, msg *protocol.Message) {
	name, ok := h.requireJoined(client)
	if !ok {
		return
	}

	payload, err := codec.ParsePayload[protocol.VotePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	outcome, err := h.room.CastVote(name, payload.Target)
	if err != nil {
		sendError(client, err)
		return
	}

	if outcome != nil {
		h.RecordOutcome(outcome)
	}
}

// handleNext 处理进入下一轮。重复触发由房间层拦截，只生效一次。
func (h *Handler) handleNext(client types.ClientInterface) {
	if _, ok := h.requireJoined(client); !ok {
		return
	}

	if err := h.room.NextRound(); err != nil {
		sendError(client, err)
	}
}

// handleEnd 处理结束游戏：房间清零，所有会话作废
func (h *Handler) handleEnd(client types.ClientInterface) {
	if _, ok := h.requireJoined(client); !ok {
		return
	}

	h.room.End()
	h.sessionManager.Clear()
}
