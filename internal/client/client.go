// Package client 实现 WebSocket 客户端连接管理。
// 断线后自动重连：重连成功即重发 join（服务端以名字识别身份，
// 离线座位上的分数和回合状态原样恢复）。
package client

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔
	reconnectInterval = 2 * time.Second
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	conn      *websocket.Conn
	send      chan []byte
	receive   chan *protocol.Message
	done      chan struct{}

	// 加入成功后记录，重连时重发 join 用
	accessCode string
	playerName string

	// 网络延迟（毫秒）
	Latency int64

	// 回调
	OnMessage       func(*protocol.Message) // 消息回调
	OnError         func(error)             // 错误回调
	OnClose         func()                  // 关闭回调
	OnReconnect     func()                  // 重连成功回调
	OnLatencyUpdate func(int64)             // 延迟更新回调

	mu             sync.RWMutex
	closed         bool
	reconnecting   atomic.Bool
	reconnectCount int
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		send:      make(chan []byte, 256),
		receive:   make(chan *protocol.Message, 256),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器
func (c *Client) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.ServerURL, nil)
	if err != nil {
		return err
	}

	c.conn = conn

	// 启动读写协程
	go c.readPump()
	go c.writePump()

	return nil
}

// readPump 从服务器读取消息
func (c *Client) readPump() {
	defer func() {
		// 已经加入过就尝试重连，否则直接关闭
		if c.getPlayerName() != "" && !c.reconnecting.Load() {
			go c.tryReconnect()
		} else {
			c.Close()
			if c.OnClose != nil {
				c.OnClose()
			}
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
			}
			return
		}

		msg, err := codec.Decode(message)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			continue
		}

		// 加入成功：记录身份，供断线重连使用
		if msg.Type == protocol.MsgJoined {
			if payload, err := codec.ParsePayload[protocol.JoinedPayload](msg); err == nil {
				c.mu.Lock()
				c.playerName = payload.Name
				c.reconnectCount = 0
				c.mu.Unlock()

				// 无论服务端判定为重连还是全新加入，重连流程到此结束
				wasReconnecting := c.reconnecting.Swap(false)
				if (payload.Reconnected || wasReconnecting) && c.OnReconnect != nil {
					c.OnReconnect()
				}
			}
		}

		// 处理 pong 消息计算延迟
		if msg.Type == protocol.MsgPong {
			if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
				latency := time.Now().UnixMilli() - payload.ClientTimestamp
				c.Latency = latency
				if c.OnLatencyUpdate != nil {
					c.OnLatencyUpdate(latency)
				}
			}
		}

		// 回调处理
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}

		// 同时发送到 channel
		select {
		case c.receive <- msg:
		default:
		}
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errors.New("connection closed")
	}
	c.mu.RUnlock()

	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Receive 接收消息（阻塞）
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, errors.New("connection closed")
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("receive timeout")
	case <-c.done:
		return nil, errors.New("connection closed")
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// PlayerName 返回加入成功后绑定的名字
func (c *Client) PlayerName() string {
	return c.getPlayerName()
}

func (c *Client) getPlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// --- 便捷方法 ---

// Join 加入房间（口令 + 名字）
func (c *Client) Join(code, name string) error {
	c.mu.Lock()
	c.accessCode = code
	c.mu.Unlock()

	return c.SendMessage(codec.MustNewMessage(protocol.MsgJoin, protocol.JoinPayload{
		Code: code,
		Name: name,
	}))
}

// Leave 离开房间
func (c *Client) Leave() error {
	c.mu.Lock()
	c.playerName = ""
	c.mu.Unlock()
	return c.SendMessage(codec.MustNewMessage(protocol.MsgLeave, nil))
}

// Kick 踢出指定玩家
func (c *Client) Kick(target string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgKick, protocol.KickPayload{
		Target: target,
	}))
}

// Start 开始游戏
func (c *Client) Start() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgStart, nil))
}

// Vote 投票
func (c *Client) Vote(target string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgVote, protocol.VotePayload{
		Target: target,
	}))
}

// Next 进入下一轮
func (c *Client) Next() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgNext, nil))
}

// End 结束游戏
func (c *Client) End() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgEnd, nil))
}

// GetStats 查询自己的历史战绩
func (c *Client) GetStats() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetStats, nil))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}

// StartHeartbeat 启动心跳检测
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}

// tryReconnect 断线后自动重连，成功后重发 join 恢复座位
func (c *Client) tryReconnect() {
	if c.reconnecting.Load() {
		return
	}
	c.reconnecting.Store(true)

	for {
		c.mu.Lock()
		if c.reconnectCount >= maxReconnectAttempts {
			c.mu.Unlock()
			break
		}
		c.reconnectCount++
		attempt := c.reconnectCount
		c.mu.Unlock()

		log.Printf("🔄 尝试重连 (%d/%d)...", attempt, maxReconnectAttempts)

		time.Sleep(reconnectInterval)

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}

		conn, _, err := dialer.Dial(c.ServerURL, nil)
		if err != nil {
			log.Printf("重连失败: %v", err)
			continue
		}

		// 重置状态。先关掉旧连接，让旧的写协程尽快退出
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = conn
		c.closed = false
		c.send = make(chan []byte, 256)
		c.receive = make(chan *protocol.Message, 256)
		c.done = make(chan struct{})
		code, name := c.accessCode, c.playerName
		c.mu.Unlock()

		go c.readPump()
		go c.writePump()

		// 以原来的名字重新 join，服务端会把座位换绑到新连接
		if err := c.Join(code, name); err != nil {
			log.Printf("重发 join 失败: %v", err)
			continue
		}
		return
	}

	// 重连次数用完
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
