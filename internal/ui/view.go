package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matttsch/imposter/internal/protocol"
)

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.phase {
	case PhaseConnecting:
		content = m.connectingView()
	case PhaseJoin:
		content = m.joinView()
	case PhaseLobby:
		content = m.lobbyView()
	case PhaseRound:
		content = m.roundView()
	case PhaseResult:
		content = m.resultView()
	}

	return DocStyle.Render(content)
}

func (m *Model) connectingView() string {
	text := "正在连接服务器..."
	if m.err != "" {
		text = ErrorStyle.Render(m.err)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}

func (m *Model) joinView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("🕵️ 谁是卧底"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(HintStyle.Render("[Enter] 加入  [Esc] 退出"))
	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m *Model) lobbyView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("🕵️ 谁是卧底 · 大厅"))
	sb.WriteString("\n\n")
	sb.WriteString(m.rosterView(true))
	sb.WriteString("\n")
	sb.WriteString(HintStyle.Render("[s/Enter] 开始游戏  [↑/↓] 选择  [x] 踢出  [t] 战绩  [Esc] 离开  [q] 退出"))
	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m *Model) roundView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("🕵️ 谁是卧底"))
	sb.WriteString("  ")
	sb.WriteString(HintStyle.Render(fmt.Sprintf("词库剩余 %d", m.remaining)))
	sb.WriteString("\n\n")

	if m.word == protocol.ImposterWord {
		sb.WriteString(ImposterStyle.Render("你是卧底！听别人怎么描述，别暴露自己"))
	} else {
		sb.WriteString(BoxStyle.Render("你的词：" + WordStyle.Render(m.word)))
	}
	sb.WriteString("\n\n")

	if m.voted {
		sb.WriteString("✅ 已投票，等待其他玩家...\n\n")
		sb.WriteString(m.rosterView(false))
		sb.WriteString("\n")
		sb.WriteString(HintStyle.Render("[Esc] 离开  [q] 退出"))
	} else {
		sb.WriteString("你觉得谁是卧底？\n\n")
		sb.WriteString(m.rosterView(true))
		sb.WriteString("\n")
		sb.WriteString(HintStyle.Render("[↑/↓] 选择  [Enter] 投票  [x] 踢出  [Esc] 离开"))
	}

	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m *Model) resultView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("📣 本轮结果"))
	sb.WriteString("\n\n")

	if m.result != nil {
		caught := false
		for _, name := range m.result.VotedOut {
			if name == m.result.ImposterName {
				caught = true
			}
		}

		sb.WriteString(fmt.Sprintf("被投出：%s\n", strings.Join(m.result.VotedOut, "、")))
		if caught {
			sb.WriteString(fmt.Sprintf("🎉 卧底 %s 被抓到了！\n", WordStyle.Render(m.result.ImposterName)))
		} else {
			sb.WriteString(fmt.Sprintf("😈 卧底是 %s，这轮逃过去了\n", ErrorStyle.Render(m.result.ImposterName)))
		}

		sb.WriteString("\n投票记录：\n")
		for _, v := range m.result.VoteHistory {
			sb.WriteString(fmt.Sprintf("  %s → %s\n", v.From, v.To))
		}
	}

	sb.WriteString("\n积分榜：\n")
	sb.WriteString(m.scoreboardView())
	sb.WriteString("\n")
	sb.WriteString(HintStyle.Render("[n/Enter] 下一轮  [e] 结束游戏  [t] 战绩  [Esc] 离开  [q] 退出"))
	sb.WriteString(m.statusLine())
	return sb.String()
}

// rosterView 渲染玩家列表，withCursor 时带选择游标
func (m *Model) rosterView(withCursor bool) string {
	var sb strings.Builder
	for i, p := range m.players {
		cursor := "  "
		if withCursor && i == m.cursor {
			cursor = CursorStyle.Render("❯ ")
		}

		name := p.Name
		if !p.Online {
			name = OfflineStyle.Render(name + "（掉线）")
		}
		if p.Name == m.playerName {
			name += HintStyle.Render("（你）")
		}

		marker := ""
		if p.Voted {
			marker = " 🗳️"
		}

		sb.WriteString(fmt.Sprintf("%s%s · %d 分%s\n", cursor, name, p.Score, marker))
	}
	return sb.String()
}

func (m *Model) scoreboardView() string {
	names := make([]string, 0, len(m.scores))
	for name := range m.scores {
		names = append(names, name)
	}
	// 按分数降序，同分按名字
	sort.Slice(names, func(i, j int) bool {
		if m.scores[names[i]] != m.scores[names[j]] {
			return m.scores[names[i]] > m.scores[names[j]]
		}
		return names[i] < names[j]
	})

	var sb strings.Builder
	for i, name := range names {
		sb.WriteString(fmt.Sprintf("  %d. %s — %d 分\n", i+1, name, m.scores[name]))
	}
	return sb.String()
}

// statusLine 底部通知栏：错误、通知、延迟
func (m *Model) statusLine() string {
	var parts []string
	if m.err != "" {
		parts = append(parts, ErrorStyle.Render(m.err))
	}
	if m.notice != "" {
		parts = append(parts, NoticeStyle.Render(m.notice))
	}
	if m.latency > 0 {
		parts = append(parts, HintStyle.Render(fmt.Sprintf("%dms", m.latency)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\n" + strings.Join(parts, "  ")
}
