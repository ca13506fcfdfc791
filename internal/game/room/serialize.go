package room

import (
	"time"

	"github.com/matttsch/imposter/internal/server/storage"
)

// snapshotLocked 导出房间当前状态的快照，用于写入 Redis。
// 快照只用于观察与故障排查，重建房间需要外部驱动。
func (r *Room) snapshotLocked() *storage.RoomData {
	players := make([]storage.PlayerData, 0, len(r.joinOrder))
	for _, name := range r.joinOrder {
		p := r.players[name]
		_, eligible := r.eligible[name]
		players = append(players, storage.PlayerData{
			Name:     p.Name,
			Score:    p.Score,
			Status:   p.Status.String(),
			Online:   p.Client != nil,
			Eligible: eligible,
		})
	}

	ballot := make(map[string]string, len(r.ballot))
	for voter, target := range r.ballot {
		ballot[voter] = target
	}

	history := make([]storage.VoteData, 0, len(r.voteHistory))
	for _, v := range r.voteHistory {
		history = append(history, storage.VoteData{From: v.From, To: v.To})
	}

	return &storage.RoomData{
		Started:     r.started,
		Word:        r.word,
		Imposter:    r.imposter,
		Players:     players,
		Ballot:      ballot,
		VoteHistory: history,
		UpdatedAt:   time.Now().Unix(),
	}
}
