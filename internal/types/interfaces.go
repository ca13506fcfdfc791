package types

import (
	"github.com/matttsch/imposter/internal/protocol"
)

// ClientInterface 定义客户端连接接口（用于打破循环依赖）
// 连接 ID 是临时的，玩家身份以名字为准，加入成功后绑定。
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	SendMessage(msg *protocol.Message)
	Close()
}
