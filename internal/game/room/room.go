// Package room 实现房间聚合：玩家名册、回合引擎与投票结算。
// 房间内所有状态变更都在同一把锁下串行执行。
package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/game/words"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/server/storage"
	"github.com/matttsch/imposter/internal/types"
)

// Player 房间中的玩家。名字是稳定身份，连接是可替换的属性。
type Player struct {
	Name   string
	Client types.ClientInterface // 掉线期间为 nil
	Score  int
	Status PlayerStatus
}

// Options 房间策略配置
type Options struct {
	// 中途加入的玩家是否立即看到本轮的词
	RevealWordToLateJoiners bool
	// 断线后座位保留时长（仅用于通知里的倒计时展示）
	ReconnectGrace time.Duration
}

// Room 游戏房间（单房间设计，按口令准入；
// 如需多房间，按房间号各建一个实例即可）。
type Room struct {
	mu   sync.RWMutex
	pool *words.Pool
	// 快照存储，可为 nil
	store *storage.RedisStore
	opts  Options

	players   map[string]*Player
	joinOrder []string // 首次注册顺序

	started bool

	// 当前回合状态。started 为 false 时以下字段均无意义。
	word        string              // 本轮的词
	imposter    string              // 本轮卧底的名字（按身份记录，不随名册变动漂移）
	eligible    map[string]struct{} // 回合开始时在场、有投票资格的玩家
	ballot      map[string]string   // voter -> target，每人至多一票
	voteHistory []protocol.VoteRecord
	lastResult  *protocol.ResultPayload
}

// NewRoom 创建房间。store 可为 nil（不保存快照）。
func NewRoom(pool *words.Pool, store *storage.RedisStore, opts Options) *Room {
	return &Room{
		pool:    pool,
		store:   store,
		opts:    opts,
		players: make(map[string]*Player),
	}
}

// Register 注册或重连一个玩家。
// 名字已存在且对应座位离线时视为重连：只换绑连接，分数与回合状态原样保留。
// 名字被在线玩家占用时返回 ErrNameTaken。
// 返回的 JoinedPayload 已包含该玩家恢复所需的全部状态。
func (r *Room) Register(client types.ClientInterface, name string) (*protocol.JoinedPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[name]; exists {
		if p.Client != nil {
			return nil, apperrors.ErrNameTaken
		}

		// 重连：换绑连接，不动分数和状态
		p.Client = client
		client.SetName(name)

		log.Printf("📶 玩家 %s 重连成功", name)

		r.broadcastExceptLocked(name, codec.MustNewMessage(protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{
			Name: name,
		}))
		r.broadcastRosterLocked()
		r.saveSnapshotLocked()

		return r.buildJoinedLocked(p, true), nil
	}

	p := &Player{
		Name:   name,
		Client: client,
		Status: StatusIdle,
	}
	if r.started {
		// 中途加入：本轮观战，下一轮起参与投票
		p.Status = StatusSpectating
	}

	r.players[name] = p
	r.joinOrder = append(r.joinOrder, name)
	client.SetName(name)

	log.Printf("👤 玩家 %s 加入房间（第 %d 位）", name, len(r.joinOrder))

	r.broadcastRosterLocked()
	r.saveSnapshotLocked()

	return r.buildJoinedLocked(p, false), nil
}

// Remove 移除一个玩家（主动离开、被踢或重连宽限期超时）。
// 同步清掉其选票并重新检查本轮是否因此凑齐。
func (r *Room) Remove(name string) *RoundOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(name)
}

func (r *Room) removeLocked(name string) *RoundOutcome {
	if _, exists := r.players[name]; !exists {
		return nil
	}

	delete(r.players, name)
	for i, n := range r.joinOrder {
		if n == name {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}

	// 清理投票记录：该玩家的选票作废，投给他的票保留（名字仍可显示）
	delete(r.ballot, name)
	delete(r.eligible, name)

	log.Printf("👋 玩家 %s 已离开房间", name)

	if len(r.players) == 0 {
		// 房间空了，静默回到大厅状态（词库进度保留）
		log.Printf("🧹 房间已无人，回到等待状态")
		r.resetLocked(false)
		return nil
	}

	r.broadcastRosterLocked()
	r.saveSnapshotLocked()

	// 少了一个待投票的人，本轮可能因此凑齐
	if r.started && r.lastResult == nil && len(r.eligible) > 0 {
		return r.checkCompletionLocked()
	}
	return nil
}

// RemoveIfOffline 仅当座位仍处于掉线状态时移除玩家，
// 供重连宽限期超时回调使用：超时判定和回调执行之间
// 玩家可能已经重连，此时座位原样保留。
func (r *Room) RemoveIfOffline(name string) *RoundOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[name]
	if !exists || p.Client != nil {
		return nil
	}

	log.Printf("⌛ 玩家 %s 重连宽限期已过，释放座位", name)
	return r.removeLocked(name)
}

// Kick 把 target 踢出房间，并单独通知被踢者。
// 没有权限限制：任何玩家都可以踢任何玩家（沿用原始设计的策略空档）。
func (r *Room) Kick(by, target string) (*RoundOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[target]
	if !exists {
		return nil, apperrors.ErrUnknownTarget
	}

	if p.Client != nil {
		p.Client.SendMessage(codec.MustNewMessage(protocol.MsgKicked, protocol.KickedPayload{By: by}))
	}

	log.Printf("🥾 玩家 %s 被 %s 踢出房间", target, by)

	return r.removeLocked(target), nil
}

// SetOffline 标记玩家掉线。座位、分数、选票全部保留，等待宽限期内重连。
func (r *Room) SetOffline(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[name]
	if !exists {
		return
	}
	p.Client = nil

	log.Printf("📴 玩家 %s 掉线，座位保留 %v", name, r.opts.ReconnectGrace)

	r.broadcastLocked(codec.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{
		Name:    name,
		Timeout: int(r.opts.ReconnectGrace.Seconds()),
	}))
	r.broadcastRosterLocked()
	r.saveSnapshotLocked()
}

// HasPlayer 判断名册中是否存在该玩家
func (r *Room) HasPlayer(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.players[name]
	return exists
}

// Started 返回游戏是否进行中
func (r *Room) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// Roster 返回按加入顺序排列的玩家列表快照
func (r *Room) Roster() []protocol.PlayerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

func (r *Room) rosterLocked() []protocol.PlayerInfo {
	roster := make([]protocol.PlayerInfo, 0, len(r.joinOrder))
	for _, name := range r.joinOrder {
		p := r.players[name]
		roster = append(roster, protocol.PlayerInfo{
			Name:   p.Name,
			Score:  p.Score,
			Online: p.Client != nil,
			Voted:  p.Status == StatusVoted,
		})
	}
	return roster
}

// Scores 返回当前积分表快照
func (r *Room) Scores() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scoresLocked()
}

func (r *Room) scoresLocked() map[string]int {
	scores := make(map[string]int, len(r.players))
	for name, p := range r.players {
		scores[name] = p.Score
	}
	return scores
}

// buildJoinedLocked 构造 joined 响应，带上恢复当前局面所需的状态
func (r *Room) buildJoinedLocked(p *Player, reconnected bool) *protocol.JoinedPayload {
	payload := &protocol.JoinedPayload{
		Name:        p.Name,
		Reconnected: reconnected,
		Started:     r.started,
		Remaining:   r.pool.Remaining(),
		Scores:      r.scoresLocked(),
	}

	if !r.started {
		return payload
	}

	payload.PlayerState = p.Status.String()

	switch p.Status {
	case StatusSpectating:
		if r.opts.RevealWordToLateJoiners && r.lastResult == nil {
			payload.Word = r.word
		}
	case StatusAwaitingVote, StatusVoted, StatusViewingResult:
		payload.Word = r.wordForLocked(p.Name)
	}

	if r.lastResult != nil && p.Status != StatusSpectating {
		payload.LastResult = r.lastResult
	}

	return payload
}

// wordForLocked 返回该玩家本轮应看到的词
func (r *Room) wordForLocked(name string) string {
	if name == r.imposter {
		return protocol.ImposterWord
	}
	return r.word
}

// --- 广播 ---

func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, p := range r.players {
		if p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

func (r *Room) broadcastExceptLocked(name string, msg *protocol.Message) {
	for _, p := range r.players {
		if p.Name != name && p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

func (r *Room) broadcastRosterLocked() {
	r.broadcastLocked(codec.MustNewMessage(protocol.MsgPlayers, protocol.PlayersPayload{
		Players: r.rosterLocked(),
	}))
}

func (r *Room) broadcastScoresLocked() {
	r.broadcastLocked(codec.MustNewMessage(protocol.MsgScores, protocol.ScoresPayload{
		Scores: r.scoresLocked(),
	}))
}

// saveSnapshotLocked 异步保存房间快照（store 为 nil 时跳过）
func (r *Room) saveSnapshotLocked() {
	if r.store == nil {
		return
	}
	data := r.snapshotLocked()
	go func() { _ = r.store.SaveRoom(context.Background(), data) }()
}
