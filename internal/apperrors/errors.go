package apperrors

import (
	"github.com/matttsch/imposter/internal/protocol"
)

// GameError 游戏错误（注册、回合与投票共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrUnauthorized    = &GameError{Code: protocol.ErrCodeUnauthorized, Message: "房间口令错误"}
	ErrNameTaken       = &GameError{Code: protocol.ErrCodeNameTaken, Message: "这个名字已被占用"}
	ErrNotJoined       = &GameError{Code: protocol.ErrCodeNotJoined, Message: "请先加入房间"}
	ErrAlreadyStarted  = &GameError{Code: protocol.ErrCodeAlreadyStarted, Message: "游戏已开始"}
	ErrGameNotStart    = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotEligible     = &GameError{Code: protocol.ErrCodeNotEligible, Message: "您本轮没有投票资格"}
	ErrAlreadyVoted    = &GameError{Code: protocol.ErrCodeAlreadyVoted, Message: "您已经投过票了"}
	ErrUnknownTarget   = &GameError{Code: protocol.ErrCodeUnknownTarget, Message: "目标玩家不存在"}
	ErrRoundInProgress = &GameError{Code: protocol.ErrCodeRoundInProgress, Message: "本轮尚未结束"}
	ErrPoolExhausted   = &GameError{Code: protocol.ErrCodePoolExhausted, Message: "词库已用尽，无法开始新一轮"}
)
