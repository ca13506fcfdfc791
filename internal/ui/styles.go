package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Lipgloss Styles
var (
	DocStyle   = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	BoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	HintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	WordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	// 卧底提示用醒目的红底白字
	ImposterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#CD0000")).Bold(true).Padding(0, 1)
	CursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	NoticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	OfflineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
)
