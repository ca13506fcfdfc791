package session

import (
	"sync"
	"time"
)

const (
	// 清理协程扫描间隔
	cleanupInterval = 10 * time.Second
)

// PlayerSession 玩家会话（用于断线重连）
// 身份以玩家名字为准：换了连接但名字相同视为同一玩家。
type PlayerSession struct {
	Name string

	DisconnectedAt time.Time // 断线时间
	IsOnline       bool      // 是否在线

	mu sync.RWMutex
}

// SessionManager 会话管理器
// 玩家断线后在宽限期内保留席位，超时由 onExpire 回调释放。
type SessionManager struct {
	sessions map[string]*PlayerSession // name -> session
	grace    time.Duration
	onExpire func(name string)
	mu       sync.RWMutex
}

// NewSessionManager 创建会话管理器
func NewSessionManager(grace time.Duration, onExpire func(name string)) *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*PlayerSession),
		grace:    grace,
		onExpire: onExpire,
	}

	// 启动会话清理协程
	go sm.cleanupLoop()

	return sm
}

// Track 登记玩家会话，已存在时标记为在线
func (sm *SessionManager) Track(name string) *PlayerSession {
	sm.mu.Lock()
	session, ok := sm.sessions[name]
	if !ok {
		session = &PlayerSession{Name: name, IsOnline: true}
		sm.sessions[name] = session
		sm.mu.Unlock()
		return session
	}
	sm.mu.Unlock()

	session.mu.Lock()
	session.IsOnline = true
	session.DisconnectedAt = time.Time{}
	session.mu.Unlock()
	return session
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(name string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[name]
}

// SetOffline 设置玩家离线，开始计算宽限期
func (sm *SessionManager) SetOffline(name string) {
	sm.mu.RLock()
	session, ok := sm.sessions[name]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.IsOnline = false
		session.DisconnectedAt = time.Now()
		session.mu.Unlock()
	}
}

// SetOnline 设置玩家上线
func (sm *SessionManager) SetOnline(name string) {
	sm.mu.RLock()
	session, ok := sm.sessions[name]
	sm.mu.RUnlock()

	if ok {
		session.mu.Lock()
		session.IsOnline = true
		session.DisconnectedAt = time.Time{}
		session.mu.Unlock()
	}
}

// Delete 删除会话
func (sm *SessionManager) Delete(name string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, name)
}

// Clear 删除全部会话
func (sm *SessionManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions = make(map[string]*PlayerSession)
}

// IsOnline 检查玩家是否在线
func (sm *SessionManager) IsOnline(name string) bool {
	sm.mu.RLock()
	session, ok := sm.sessions[name]
	sm.mu.RUnlock()

	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.IsOnline
}

// cleanupLoop 定期清理超过宽限期的离线会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		sm.cleanup()
	}
}

// cleanup 清理过期会话并触发回调
func (sm *SessionManager) cleanup() {
	var expired []string

	sm.mu.Lock()
	now := time.Now()
	for name, session := range sm.sessions {
		session.mu.RLock()
		if !session.IsOnline && now.Sub(session.DisconnectedAt) > sm.grace {
			expired = append(expired, name)
			delete(sm.sessions, name)
		}
		session.mu.RUnlock()
	}
	sm.mu.Unlock()

	// 回调在锁外触发，避免与房间锁互相等待
	if sm.onExpire != nil {
		for _, name := range expired {
			sm.onExpire(name)
		}
	}
}
