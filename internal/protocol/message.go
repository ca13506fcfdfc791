package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgJoin  MessageType = "join"  // 加入房间（口令 + 名字，重连复用同一事件）
	MsgLeave MessageType = "leave" // 主动离开，释放座位
	MsgKick  MessageType = "kick"  // 踢出指定玩家

	// 游戏操作
	MsgStart MessageType = "start" // 开始游戏
	MsgVote  MessageType = "vote"  // 投票
	MsgNext  MessageType = "next"  // 进入下一轮
	MsgEnd   MessageType = "end"   // 结束游戏，重置房间

	// 统计查询
	MsgGetStats MessageType = "get_stats" // 查询自己的历史战绩
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家重连通知

	// 房间相关
	MsgJoined  MessageType = "joined"  // 加入成功（重连时附带当前状态）
	MsgPlayers MessageType = "players" // 玩家列表快照
	MsgKicked  MessageType = "kicked"  // 被踢出房间

	// 游戏流程
	MsgStarted MessageType = "started" // 游戏已开始
	MsgRound   MessageType = "round"   // 新一轮（每人单独下发自己的词）
	MsgResult  MessageType = "result"  // 投票结果
	MsgScores  MessageType = "scores"  // 累计积分表
	MsgEnded   MessageType = "ended"   // 游戏结束，房间已重置

	// 统计
	MsgStatsResult MessageType = "stats_result" // 历史战绩查询结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
