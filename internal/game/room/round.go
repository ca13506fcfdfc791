package room

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
)

// Start 开始游戏：广播 started，随后立即开第一轮。
// 任何玩家都可以触发（无房主设计）。
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return apperrors.ErrAlreadyStarted
	}

	r.started = true
	log.Printf("🎮 游戏开始，共 %d 名玩家", len(r.players))

	r.broadcastLocked(codec.MustNewMessage(protocol.MsgStarted, nil))

	if err := r.beginRoundLocked(); err != nil {
		return err
	}

	r.saveSnapshotLocked()
	return nil
}

// NextRound 进入下一轮。只有上一轮已出结果时才有效，
// 连续两次 next 只会生效一次（锁内串行 + lastResult 判空）。
func (r *Room) NextRound() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return apperrors.ErrGameNotStart
	}
	if r.lastResult == nil {
		return apperrors.ErrRoundInProgress
	}

	if err := r.beginRoundLocked(); err != nil {
		return err
	}

	r.saveSnapshotLocked()
	return nil
}

// beginRoundLocked 开启新一轮：
// 选词 → 选卧底 → 清空上一轮的投票状态 → 每人单独下发自己的词。
// 选词失败（词库用尽）时广播错误且不改动任何回合状态。
func (r *Room) beginRoundLocked() error {
	word, err := r.pool.Pick(context.Background())
	if err != nil {
		if errors.Is(err, apperrors.ErrPoolExhausted) {
			// 词库用尽会卡住所有后续回合，广播给整个房间
			log.Printf("⚠️  词库已用尽，无法开始新一轮")
			r.broadcastLocked(codec.NewErrorMessage(protocol.ErrCodePoolExhausted))
		}
		return err
	}

	// 卧底按身份引用记录，回合中名册变动不会让它漂移
	imposter := r.joinOrder[rand.IntN(len(r.joinOrder))]

	r.word = word
	r.imposter = imposter
	r.ballot = make(map[string]string)
	r.voteHistory = nil
	r.lastResult = nil

	// 回合开始时在场的所有人（含上一轮的观战者）都获得投票资格
	r.eligible = make(map[string]struct{}, len(r.players))
	for name, p := range r.players {
		r.eligible[name] = struct{}{}
		p.Status = StatusAwaitingVote
	}

	remaining := r.pool.Remaining()
	log.Printf("🎲 新一轮开始，词库剩余 %d", remaining)

	for _, p := range r.players {
		if p.Client == nil {
			continue // 掉线玩家重连时通过 joined 恢复
		}
		p.Client.SendMessage(codec.MustNewMessage(protocol.MsgRound, protocol.RoundPayload{
			Word:      r.wordForLocked(p.Name),
			Remaining: remaining,
		}))
	}

	r.broadcastRosterLocked()
	return nil
}

// End 结束游戏：通知所有人后把房间恢复为零值状态。
// 积分、投票历史、已用词记录全部清空。
func (r *Room) End() {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Printf("🏁 游戏结束，房间重置")

	r.broadcastLocked(codec.MustNewMessage(protocol.MsgEnded, nil))
	r.resetLocked(true)
}

// resetLocked 把房间恢复为零值状态。resetPool 为 true 时同时清空已用词。
func (r *Room) resetLocked(resetPool bool) {
	r.players = make(map[string]*Player)
	r.joinOrder = nil
	r.started = false
	r.word = ""
	r.imposter = ""
	r.eligible = nil
	r.ballot = nil
	r.voteHistory = nil
	r.lastResult = nil

	if resetPool {
		r.pool.Reset(context.Background())
	}

	if r.store != nil {
		go func() { _ = r.store.DeleteRoom(context.Background()) }()
	}
}
