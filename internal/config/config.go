package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3001
	defaultMaxConnections = 256
	defaultRedisAddr      = "localhost:6379"
	defaultAccessCode     = "imposter"
	defaultWordList       = "configs/words.txt"
	defaultReconnectGrace = 120
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	AccessCode     string `yaml:"access_code"`     // 房间口令
	WordList       string `yaml:"word_list"`       // 词库文件路径
	ReconnectGrace int    `yaml:"reconnect_grace"` // 断线重连宽限期（秒）

	// 中途加入的玩家是否立即看到本轮的词（默认不看，下一轮才参与）
	RevealWordToLateJoiners bool `yaml:"reveal_word_to_late_joiners"`
}

// ReconnectGraceDuration 返回断线重连宽限时长
func (c *GameConfig) ReconnectGraceDuration() time.Duration {
	return time.Duration(c.ReconnectGrace) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// applyDefaults 填充未设置的字段
func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Game.AccessCode == "" {
		cfg.Game.AccessCode = defaultAccessCode
	}
	if cfg.Game.WordList == "" {
		cfg.Game.WordList = defaultWordList
	}
	if cfg.Game.ReconnectGrace == 0 {
		cfg.Game.ReconnectGrace = defaultReconnectGrace
	}
}

// applyEnv 环境变量覆盖（用于容器部署）
func (cfg *Config) applyEnv() {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GAME_ACCESS_CODE"); v != "" {
		cfg.Game.AccessCode = v
	}
	if v := os.Getenv("GAME_WORD_LIST"); v != "" {
		cfg.Game.WordList = v
	}
	if v := os.Getenv("GAME_RECONNECT_GRACE"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.Game.ReconnectGrace = sec
		}
	}
}
