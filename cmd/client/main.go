package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matttsch/imposter/internal/logger"
	"github.com/matttsch/imposter/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:3001", "服务器地址")
	accessCode := flag.String("code", "imposter", "房间口令")
	flag.Parse()

	// TUI 接管终端后，日志写到文件
	if err := logger.Init(); err != nil {
		log.Printf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)

	model := ui.NewModel(serverURL, *accessCode)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
