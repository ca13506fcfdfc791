package room

// PlayerStatus 玩家在一轮中的状态
type PlayerStatus int

const (
	StatusIdle          PlayerStatus = iota // 游戏未开始
	StatusAwaitingVote                      // 等待投票
	StatusVoted                             // 已投票
	StatusViewingResult                     // 查看结果
	StatusSpectating                        // 中途加入，本轮观战，下一轮参与
)

// String 返回状态的协议字符串
func (s PlayerStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingVote:
		return "awaiting_vote"
	case StatusVoted:
		return "voted"
	case StatusViewingResult:
		return "viewing_result"
	case StatusSpectating:
		return "spectating"
	default:
		return "unknown"
	}
}
