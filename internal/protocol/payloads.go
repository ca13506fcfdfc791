package protocol

import "encoding/json"

// ImposterWord 卧底收到的占位词，永远不会与真实词相同
const ImposterWord = "IMPOSTER"

// --- 客户端请求 Payloads ---

// JoinPayload 加入房间请求
type JoinPayload struct {
	Code string `json:"code"` // 房间口令
	Name string `json:"name"` // 玩家名字（房间内唯一，作为稳定身份）
}

// VotePayload 投票请求
type VotePayload struct {
	Target string `json:"target"` // 被投玩家名字
}

// KickPayload 踢人请求
type KickPayload struct {
	Target string `json:"target"` // 被踢玩家名字
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// --- 服务端响应 Payloads ---

// JoinedPayload 加入成功响应，重连时附带恢复状态
type JoinedPayload struct {
	Name        string         `json:"name"`
	Reconnected bool           `json:"reconnected"`            // 是否为断线重连
	Started     bool           `json:"started"`                // 游戏是否进行中
	PlayerState string         `json:"player_state,omitempty"` // 自己的回合状态
	Word        string         `json:"word,omitempty"`         // 当前轮自己的词（或占位词）
	Remaining   int            `json:"remaining"`              // 词库剩余数量
	LastResult  *ResultPayload `json:"last_result,omitempty"`  // 上一轮结果（若尚在查看）
	Scores      map[string]int `json:"scores,omitempty"`       // 当前积分表
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Online bool   `json:"online"`
	Voted  bool   `json:"voted"` // 本轮是否已投票
}

// PlayersPayload 玩家列表快照（任何名单变化都会广播）
type PlayersPayload struct {
	Players []PlayerInfo `json:"players"`
}

// RoundPayload 新一轮通知，按玩家单独下发
type RoundPayload struct {
	Word      string `json:"word"`      // 真实词或占位词
	Remaining int    `json:"remaining"` // 词库剩余数量
}

// VoteRecord 一条投票记录（from/to 均为玩家名字）
type VoteRecord struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// VotedOutNames 被投出名单。恰好一人时编码为单个名字，
// 平票时编码为名字数组；解码两种形状都接受。
type VotedOutNames []string

func (v VotedOutNames) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *VotedOutNames) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = VotedOutNames{single}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*v = VotedOutNames(names)
	return nil
}

// ResultPayload 投票结果
type ResultPayload struct {
	VotedOut     VotedOutNames `json:"voted_out"`     // 得票最高者，平票时包含所有并列玩家
	ImposterName string        `json:"imposter_name"` // 真实卧底
	VoteHistory  []VoteRecord  `json:"vote_history"`  // 完整投票记录
}

// ScoresPayload 累计积分表
type ScoresPayload struct {
	Scores map[string]int `json:"scores"`
}

// PlayerOfflinePayload 玩家掉线通知
type PlayerOfflinePayload struct {
	Name    string `json:"name"`
	Timeout int    `json:"timeout"` // 等待重连超时（秒）
}

// PlayerOnlinePayload 玩家重连通知
type PlayerOnlinePayload struct {
	Name string `json:"name"`
}

// KickedPayload 被踢通知
type KickedPayload struct {
	By string `json:"by"` // 发起踢人的玩家
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// StatsResultPayload 历史战绩查询结果（跨局累计）
type StatsResultPayload struct {
	Name               string  `json:"name"`
	RoundsPlayed       int     `json:"rounds_played"`       // 参与回合数
	ImposterRounds     int     `json:"imposter_rounds"`     // 当卧底的回合数
	CorrectAccusations int     `json:"correct_accusations"` // 投中卧底次数
	Escapes            int     `json:"escapes"`             // 当卧底逃脱次数
	EscapeRate         float64 `json:"escape_rate"`         // 逃脱率（百分比）
	LastPlayedAt       int64   `json:"last_played_at"`      // 最后游戏时间
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
