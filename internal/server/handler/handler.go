package handler

import (
	"context"
	"errors"
	"log"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/game/room"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/server/session"
	"github.com/matttsch/imposter/internal/server/storage"
	"github.com/matttsch/imposter/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Room           *room.Room
	Stats          *storage.StatsManager // 可为 nil（不记录统计）
	SessionManager *session.SessionManager
	AccessCode     string
}

// Handler 消息处理器
type Handler struct {
	room           *room.Room
	stats          *storage.StatsManager
	sessionManager *session.SessionManager
	accessCode     string
	handlers       map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		room:           deps.Room,
		stats:          deps.Stats,
		sessionManager: deps.SessionManager,
		accessCode:     deps.AccessCode,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoin:  h.handleJoin,
		protocol.MsgLeave: func(c types.ClientInterface, _ *protocol.Message) { h.handleLeave(c) },
		protocol.MsgKick:  h.handleKick,

		// 游戏操作
		protocol.MsgStart: func(c types.ClientInterface, _ *protocol.Message) { h.handleStart(c) },
		protocol.MsgVote:  h.handleVote,
		protocol.MsgNext:  func(c types.ClientInterface, _ *protocol.Message) { h.handleNext(c) },
		protocol.MsgEnd:   func(c types.ClientInterface, _ *protocol.Message) { h.handleEnd(c) },

		// 统计查询
		protocol.MsgGetStats: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetStats(c) },
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 将错误转成协议错误下发
func sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessage(gameErr.Code))
		return
	}
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// requireJoined 返回客户端绑定的玩家名，未加入时下发错误
func (h *Handler) requireJoined(client types.ClientInterface) (string, bool) {
	name := client.GetName()
	if name == "" || !h.room.HasPlayer(name) {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotJoined))
		return "", false
	}
	return name, true
}

// RecordOutcome 异步记录一轮结算的统计数据
func (h *Handler) RecordOutcome(outcome *room.RoundOutcome) {
	if h.stats == nil || outcome == nil {
		return
	}

	// 参与者 = 所有投了票的人 + 卧底本人
	participants := make([]string, 0, len(outcome.Ballot)+1)
	seenImposter := false
	for voter := range outcome.Ballot {
		participants = append(participants, voter)
		if voter == outcome.Imposter {
			seenImposter = true
		}
	}
	if !seenImposter {
		participants = append(participants, outcome.Imposter)
	}

	var accusers []string
	if outcome.Caught {
		for voter, target := range outcome.Ballot {
			if target == outcome.Imposter {
				accusers = append(accusers, voter)
			}
		}
	}

	go func() {
		if err := h.stats.RecordRound(context.Background(), outcome.Imposter, outcome.Caught, accusers, participants); err != nil {
			log.Printf("记录回合统计失败: %v", err)
		}
	}()
}
