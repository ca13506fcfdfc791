package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/matttsch/imposter/internal/config"
	"github.com/matttsch/imposter/internal/game/room"
	"github.com/matttsch/imposter/internal/game/words"
	"github.com/matttsch/imposter/internal/server/handler"
	"github.com/matttsch/imposter/internal/server/session"
	"github.com/matttsch/imposter/internal/server/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
	EnableCompression: false,
}

// Server WebSocket 服务器
type Server struct {
	config         *config.Config
	redis          *redis.Client
	redisStore     *storage.RedisStore
	stats          *storage.StatsManager
	room           *room.Room
	sessionManager *session.SessionManager
	clients        map[string]*Client
	clientsMu      sync.RWMutex
	handler        *handler.Handler

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:         cfg,
		redis:          rdb,
		redisStore:     storage.NewRedisStore(rdb),
		stats:          storage.NewStatsManager(rdb),
		clients:        make(map[string]*Client),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	// 加载词库（已用词记录从 Redis 恢复，重启不重复发词）
	wordList, err := words.LoadWordList(cfg.Game.WordList)
	if err != nil {
		return nil, fmt.Errorf("加载词库失败: %w", err)
	}
	pool, err := words.NewPool(ctx, wordList, s.redisStore)
	if err != nil {
		return nil, fmt.Errorf("初始化词库失败: %w", err)
	}
	log.Printf("📚 词库加载完成，共 %d 个词，剩余 %d 个", len(wordList), pool.Remaining())

	// 初始化房间
	s.room = room.NewRoom(pool, s.redisStore, room.Options{
		RevealWordToLateJoiners: cfg.Game.RevealWordToLateJoiners,
		ReconnectGrace:          cfg.Game.ReconnectGraceDuration(),
	})

	// 初始化会话管理器，掉线超过宽限期的座位由回调释放
	s.sessionManager = session.NewSessionManager(cfg.Game.ReconnectGraceDuration(), s.handleSeatExpired)

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Room:           s.room,
		Stats:          s.stats,
		SessionManager: s.sessionManager,
		AccessCode:     cfg.Game.AccessCode,
	})

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d)", s.maxConnections)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	s.registerClient(client)

	log.Printf("✅ 新连接 %s，当前在线 %d", client.ID, s.GetOnlineCount())

	// 启动客户端读写协程
	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleSeatExpired 重连宽限期超时：释放座位，并结算可能因此凑齐的一轮。
// 回调在会话管理器锁外执行，期间玩家可能已重连，
// 因此只在座位仍然离线时移除。
func (s *Server) handleSeatExpired(name string) {
	if outcome := s.room.RemoveIfOffline(name); outcome != nil {
		s.handler.RecordOutcome(outcome)
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接配额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		<-s.semaphore
		log.Printf("❌ 连接 %s (%s) 已断开", client.ID, client.GetName())
	}
}

// GetOnlineCount 获取在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// GracefulShutdown 优雅关闭：等当前这局打完或超时后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		if !s.room.Started() {
			log.Println("✅ 没有进行中的游戏，关闭服务器")
			break
		}
		log.Println("⏳ 等待当前游戏结束...")
		<-ticker.C
	}

	if s.room.Started() {
		log.Println("⚠️ 超时，游戏仍在进行，强制关闭")
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	// 关闭所有客户端连接
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 Redis
	_ = s.redis.Close()

	log.Println("服务器已关闭")
}
