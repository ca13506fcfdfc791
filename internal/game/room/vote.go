package room

import (
	"log"
	"sort"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
)

// RoundOutcome 一轮结算的完整结果，供调用方更新统计
type RoundOutcome struct {
	Result   *protocol.ResultPayload
	Imposter string
	Caught   bool              // 卧底是否被投出
	Ballot   map[string]string // voter -> target 副本
}

// CastVote 记录一票。
// 只有处于等待投票状态的玩家才有资格；同一人同一轮的第二票
// 会被拒绝而不是覆盖。凑齐后立即结算并返回结果。
func (r *Room) CastVote(voter, target string) (*RoundOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil, apperrors.ErrGameNotStart
	}

	p, exists := r.players[voter]
	if !exists {
		return nil, apperrors.ErrNotEligible
	}

	switch p.Status {
	case StatusAwaitingVote:
		// 可以投票
	case StatusVoted:
		return nil, apperrors.ErrAlreadyVoted
	default:
		// 观战、查看结果或游戏刚重置，都没有本轮投票资格
		return nil, apperrors.ErrNotEligible
	}

	if _, exists := r.players[target]; !exists {
		return nil, apperrors.ErrUnknownTarget
	}

	r.ballot[voter] = target
	r.voteHistory = append(r.voteHistory, protocol.VoteRecord{From: voter, To: target})
	p.Status = StatusVoted

	log.Printf("🗳️  %s 投给了 %s（%d/%d）", voter, target, len(r.ballot), len(r.eligible))

	r.broadcastRosterLocked()
	r.saveSnapshotLocked()

	return r.checkCompletionLocked(), nil
}

// checkCompletionLocked 检查本轮是否凑齐，凑齐则结算。
// 必须在每次选票或名册变化之后调用。
func (r *Room) checkCompletionLocked() *RoundOutcome {
	if r.lastResult != nil {
		return nil // 已结算
	}
	if len(r.eligible) == 0 || len(r.ballot) < len(r.eligible) {
		return nil
	}
	return r.resolveLocked()
}

// resolveLocked 结算本轮：
// 计票 → 取最高票（平票全部算被投出）→ 记分 → 广播结果与积分。
// 结算后本轮不再接受任何选票。
func (r *Room) resolveLocked() *RoundOutcome {
	// 计票
	tally := make(map[string]int)
	for _, target := range r.ballot {
		tally[target]++
	}

	maxVotes := 0
	for _, n := range tally {
		if n > maxVotes {
			maxVotes = n
		}
	}

	// 平票时所有并列最高者都算被投出（刻意设计，不是 bug）
	votedOut := make([]string, 0, 1)
	for target, n := range tally {
		if n == maxVotes {
			votedOut = append(votedOut, target)
		}
	}
	sort.Strings(votedOut)

	caught := false
	for _, name := range votedOut {
		if name == r.imposter {
			caught = true
			break
		}
	}

	// 记分：抓到卧底时，投中卧底的每个人 +1；否则卧底独得 +1
	if caught {
		for voter, target := range r.ballot {
			if target != r.imposter {
				continue
			}
			if p, exists := r.players[voter]; exists {
				p.Score++
			}
		}
	} else if p, exists := r.players[r.imposter]; exists {
		p.Score++
	}

	history := make([]protocol.VoteRecord, len(r.voteHistory))
	copy(history, r.voteHistory)

	result := &protocol.ResultPayload{
		VotedOut:     votedOut,
		ImposterName: r.imposter,
		VoteHistory:  history,
	}
	r.lastResult = result

	// 有投票资格的人进入查看结果状态，观战者保持原状
	for name := range r.eligible {
		if p, exists := r.players[name]; exists {
			p.Status = StatusViewingResult
		}
	}

	log.Printf("📣 本轮结束：被投出 %v，卧底是 %s（抓到=%v）", votedOut, r.imposter, caught)

	r.broadcastLocked(codec.MustNewMessage(protocol.MsgResult, result))
	r.broadcastScoresLocked()
	r.broadcastRosterLocked()
	r.saveSnapshotLocked()

	ballot := make(map[string]string, len(r.ballot))
	for voter, target := range r.ballot {
		ballot[voter] = target
	}

	return &RoundOutcome{
		Result:   result,
		Imposter: r.imposter,
		Caught:   caught,
		Ballot:   ballot,
	}
}
