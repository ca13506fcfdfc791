// Package ui 实现终端客户端界面（bubbletea）。
package ui

import (
	"github.com/matttsch/imposter/internal/protocol"
)

// GamePhase 当前界面所处阶段
type GamePhase int

const (
	PhaseConnecting GamePhase = iota // 连接中
	PhaseJoin                        // 输入名字加入
	PhaseLobby                       // 大厅等待开始
	PhaseRound                       // 回合进行中（看词 + 投票）
	PhaseResult                      // 查看本轮结果
)

// --- Tea Messages ---

// ServerMessage 服务器消息
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg 连接成功
type ConnectedMsg struct{}

// ConnectionErrorMsg 连接失败
type ConnectionErrorMsg struct {
	Err error
}

// ReconnectSuccessMsg 重连成功
type ReconnectSuccessMsg struct{}

// ConnectionLostMsg 连接彻底断开（重连次数用尽）
type ConnectionLostMsg struct{}

// ClearNoticeMsg 清除临时通知
type ClearNoticeMsg struct{}
