package handler

import (
	"context"

	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/types"
)

// --- 统计查询处理 ---

// handleGetStats 获取自己的历史战绩（按名字跨局累计）
func (h *Handler) handleGetStats(client types.ClientInterface) {
	name, ok := h.requireJoined(client)
	if !ok {
		return
	}

	if h.stats == nil {
		client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
			Name: name,
		}))
		return
	}

	playerStats, err := h.stats.GetPlayerStats(context.Background(), name)
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取统计失败"))
		return
	}

	if playerStats == nil {
		// 还没玩过完整一轮，返回空战绩
		client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
			Name: name,
		}))
		return
	}

	escapeRate := 0.0
	if playerStats.ImposterRounds > 0 {
		escapeRate = float64(playerStats.Escapes) / float64(playerStats.ImposterRounds) * 100
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		Name:               playerStats.Name,
		RoundsPlayed:       playerStats.RoundsPlayed,
		ImposterRounds:     playerStats.ImposterRounds,
		CorrectAccusations: playerStats.CorrectAccusations,
		Escapes:            playerStats.Escapes,
		EscapeRate:         escapeRate,
		LastPlayedAt:       playerStats.LastPlayedAt,
	}))
}
