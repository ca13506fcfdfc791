package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001

	ErrCodeUnauthorized = 2001 // 口令错误
	ErrCodeNameTaken    = 2002 // 名字已被在线玩家占用
	ErrCodeNotJoined    = 2003 // 尚未加入房间

	ErrCodeAlreadyStarted  = 3001
	ErrCodeGameNotStart    = 3002
	ErrCodeNotEligible     = 3003 // 本轮无投票资格
	ErrCodeAlreadyVoted    = 3004
	ErrCodeUnknownTarget   = 3005
	ErrCodeRoundInProgress = 3006 // 本轮尚未结束
	ErrCodePoolExhausted   = 3007 // 词库已用尽
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:         "未知错误",
	ErrCodeInvalidMsg:      "无效的消息格式",
	ErrCodeUnauthorized:    "房间口令错误",
	ErrCodeNameTaken:       "这个名字已被占用",
	ErrCodeNotJoined:       "请先加入房间",
	ErrCodeAlreadyStarted:  "游戏已开始",
	ErrCodeGameNotStart:    "游戏尚未开始",
	ErrCodeNotEligible:     "您本轮没有投票资格",
	ErrCodeAlreadyVoted:    "您已经投过票了",
	ErrCodeUnknownTarget:   "目标玩家不存在",
	ErrCodeRoundInProgress: "本轮尚未结束",
	ErrCodePoolExhausted:   "词库已用尽，无法开始新一轮",
}
