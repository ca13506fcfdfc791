package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matttsch/imposter/internal/client"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
)

// Model 客户端主模型
type Model struct {
	client     *client.Client
	accessCode string

	phase GamePhase
	err   string

	// 自己的身份
	playerName string

	// 房间状态
	players   []protocol.PlayerInfo
	scores    map[string]int
	word      string
	remaining int
	result    *protocol.ResultPayload
	voted     bool
	cursor    int // 投票/踢人选择游标

	// 通知栏
	notice  string
	latency int64

	// 重连事件从回调转发到 tea 循环
	events chan tea.Msg

	input  textinput.Model
	width  int
	height int
}

// NewModel 创建客户端模型
func NewModel(serverURL, accessCode string) *Model {
	ti := textinput.New()
	ti.Placeholder = "输入你的名字"
	ti.CharLimit = 24
	ti.Width = 30
	ti.Focus()

	c := client.NewClient(serverURL)
	events := make(chan tea.Msg, 10)

	m := &Model{
		client:     c,
		accessCode: accessCode,
		phase:      PhaseConnecting,
		scores:     make(map[string]int),
		events:     events,
		input:      ti,
	}

	c.OnReconnect = func() {
		select {
		case events <- ReconnectSuccessMsg{}:
		default:
		}
	}
	c.OnClose = func() {
		select {
		case events <- ConnectionLostMsg{}:
		default:
		}
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.connectToServer(),
		textinput.Blink,
		m.listenForEvents(),
	)
}

func (m *Model) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

func (m *Model) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.client.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// setNotice 设置一条 3 秒后自动消失的通知
func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ConnectedMsg:
		m.phase = PhaseJoin
		m.err = ""
		m.client.StartHeartbeat()
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		m.err = fmt.Sprintf("连接出错: %v", msg.Err)

	case ReconnectSuccessMsg:
		cmds = append(cmds, m.setNotice("✅ 重连成功"), m.listenForEvents(), m.listenForMessages())

	case ConnectionLostMsg:
		m.err = "连接已断开，按 q 退出"
		cmds = append(cmds, m.listenForEvents())

	case ClearNoticeMsg:
		m.notice = ""

	case ServerMessage:
		cmds = append(cmds, m.handleServerMessage(msg.Msg))
		if m.client.IsConnected() {
			cmds = append(cmds, m.listenForMessages())
		}

	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleServerMessage 处理服务器推送，更新本地状态
func (m *Model) handleServerMessage(msg *protocol.Message) tea.Cmd {
	switch msg.Type {
	case protocol.MsgJoined:
		payload, err := codec.ParsePayload[protocol.JoinedPayload](msg)
		if err != nil {
			return nil
		}
		return m.applyJoined(payload)

	case protocol.MsgPlayers:
		if payload, err := codec.ParsePayload[protocol.PlayersPayload](msg); err == nil {
			m.players = payload.Players
			if m.cursor >= len(m.players) {
				m.cursor = 0
			}
			// 以服务器名册为准同步自己的投票状态
			for _, p := range m.players {
				if p.Name == m.playerName {
					m.voted = p.Voted
				}
			}
		}

	case protocol.MsgStarted:
		return m.setNotice("🎮 游戏开始")

	case protocol.MsgRound:
		if payload, err := codec.ParsePayload[protocol.RoundPayload](msg); err == nil {
			m.word = payload.Word
			m.remaining = payload.Remaining
			m.result = nil
			m.voted = false
			m.cursor = 0
			m.phase = PhaseRound
		}

	case protocol.MsgResult:
		if payload, err := codec.ParsePayload[protocol.ResultPayload](msg); err == nil {
			m.result = payload
			m.phase = PhaseResult
		}

	case protocol.MsgScores:
		if payload, err := codec.ParsePayload[protocol.ScoresPayload](msg); err == nil {
			m.scores = payload.Scores
		}

	case protocol.MsgEnded:
		m.resetToJoin()
		return m.setNotice("🏁 游戏已结束")

	case protocol.MsgKicked:
		payload, _ := codec.ParsePayload[protocol.KickedPayload](msg)
		m.resetToJoin()
		if payload != nil {
			return m.setNotice(fmt.Sprintf("🥾 你被 %s 踢出了房间", payload.By))
		}
		return m.setNotice("🥾 你被踢出了房间")

	case protocol.MsgPlayerOffline:
		if payload, err := codec.ParsePayload[protocol.PlayerOfflinePayload](msg); err == nil {
			return m.setNotice(fmt.Sprintf("📴 %s 掉线了（%ds 内可重连）", payload.Name, payload.Timeout))
		}

	case protocol.MsgPlayerOnline:
		if payload, err := codec.ParsePayload[protocol.PlayerOnlinePayload](msg); err == nil {
			return m.setNotice(fmt.Sprintf("📶 %s 回来了", payload.Name))
		}

	case protocol.MsgError:
		if payload, err := codec.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			return m.setNotice("⚠️ " + payload.Message)
		}

	case protocol.MsgStatsResult:
		if payload, err := codec.ParsePayload[protocol.StatsResultPayload](msg); err == nil {
			if payload.RoundsPlayed == 0 {
				return m.setNotice("📜 还没有历史战绩")
			}
			return m.setNotice(fmt.Sprintf("📜 %d 回合 | 当卧底 %d 次 | 投中卧底 %d 次 | 逃脱 %d 次",
				payload.RoundsPlayed, payload.ImposterRounds, payload.CorrectAccusations, payload.Escapes))
		}

	case protocol.MsgPong:
		m.latency = m.client.Latency
	}

	return nil
}

// applyJoined 应用 joined 响应（首次加入或重连恢复）
func (m *Model) applyJoined(payload *protocol.JoinedPayload) tea.Cmd {
	m.playerName = payload.Name
	m.remaining = payload.Remaining
	if payload.Scores != nil {
		m.scores = payload.Scores
	}
	m.err = ""

	switch {
	case !payload.Started:
		m.phase = PhaseLobby
	case payload.LastResult != nil:
		m.result = payload.LastResult
		m.word = payload.Word
		m.phase = PhaseResult
	default:
		m.word = payload.Word
		m.voted = payload.PlayerState == "voted"
		m.phase = PhaseRound
	}

	if payload.Reconnected {
		return m.setNotice("✅ 已恢复到之前的局面")
	}
	return nil
}

// resetToJoin 回到加入界面
func (m *Model) resetToJoin() {
	m.phase = PhaseJoin
	m.playerName = ""
	m.players = nil
	m.scores = make(map[string]int)
	m.word = ""
	m.result = nil
	m.voted = false
	m.cursor = 0
	m.input.Reset()
	m.input.Focus()
}

// handleKey 处理按键。返回 true 表示按键已消费，不再传给输入框。
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.client.Close()
		return true, tea.Quit
	}

	switch m.phase {
	case PhaseConnecting:
		if msg.String() == "q" || msg.String() == "esc" {
			return true, tea.Quit
		}

	case PhaseJoin:
		switch msg.String() {
		case "esc":
			m.client.Close()
			return true, tea.Quit
		case "enter":
			name := m.input.Value()
			if name != "" {
				_ = m.client.Join(m.accessCode, name)
			}
			return true, nil
		}
		return false, nil // 其余按键交给输入框

	case PhaseLobby:
		return m.handleLobbyKey(msg)

	case PhaseRound:
		return m.handleRoundKey(msg)

	case PhaseResult:
		return m.handleResultKey(msg)
	}

	return true, nil
}

func (m *Model) handleLobbyKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.client.Close()
		return true, tea.Quit
	case "esc":
		_ = m.client.Leave()
		m.resetToJoin()
		return true, nil
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "s", "enter":
		_ = m.client.Start()
	case "t":
		_ = m.client.GetStats()
	case "x":
		if target := m.selectedPlayer(); target != "" && target != m.playerName {
			_ = m.client.Kick(target)
		}
	}
	return true, nil
}

func (m *Model) handleRoundKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.client.Close()
		return true, tea.Quit
	case "esc":
		_ = m.client.Leave()
		m.resetToJoin()
		return true, nil
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if !m.voted {
			if target := m.selectedPlayer(); target != "" {
				m.voted = true // 乐观标记，投票被拒时服务器会纠正状态
				_ = m.client.Vote(target)
			}
		}
	case "x":
		if target := m.selectedPlayer(); target != "" && target != m.playerName {
			_ = m.client.Kick(target)
		}
	}
	return true, nil
}

func (m *Model) handleResultKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.client.Close()
		return true, tea.Quit
	case "esc":
		_ = m.client.Leave()
		m.resetToJoin()
		return true, nil
	case "n", "enter":
		_ = m.client.Next()
	case "t":
		_ = m.client.GetStats()
	case "e":
		_ = m.client.End()
	}
	return true, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.players) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.players)) % len(m.players)
}

func (m *Model) selectedPlayer() string {
	if m.cursor < 0 || m.cursor >= len(m.players) {
		return ""
	}
	return m.players[m.cursor].Name
}
