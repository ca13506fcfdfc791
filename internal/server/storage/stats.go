package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	playerStatsKey = "imposter:stats:"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	Name string `json:"name"`

	// 总计
	RoundsPlayed   int `json:"rounds_played"`   // 参与回合数
	ImposterRounds int `json:"imposter_rounds"` // 当卧底的回合数

	// 得分来源
	CorrectAccusations int `json:"correct_accusations"` // 投中卧底次数
	Escapes            int `json:"escapes"`             // 当卧底逃脱次数

	// 时间
	LastPlayedAt int64 `json:"last_played_at"` // 最后游戏时间
	CreatedAt    int64 `json:"created_at"`     // 首次游戏时间
}

// StatsManager 玩家统计管理器
type StatsManager struct {
	redis *redis.Client
}

// NewStatsManager 创建统计管理器
func NewStatsManager(client *redis.Client) *StatsManager {
	return &StatsManager{redis: client}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (sm *StatsManager) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	key := playerStatsKey + name
	data, err := sm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (sm *StatsManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	key := playerStatsKey + stats.Name
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return sm.redis.Set(ctx, key, data, 0).Err()
}

// getOrCreateStats 获取或创建玩家统计
func (sm *StatsManager) getOrCreateStats(ctx context.Context, name string) (*PlayerStats, error) {
	stats, err := sm.GetPlayerStats(ctx, name)
	if err != nil {
		return nil, err
	}

	if stats == nil {
		return &PlayerStats{
			Name:      name,
			CreatedAt: time.Now().Unix(),
		}, nil
	}
	return stats, nil
}

// RecordRound 记录一个回合的结算结果
// imposter 为本回合卧底，caught 表示卧底是否被投出，
// accusers 为投中卧底的玩家，participants 为全部参与投票的玩家。
func (sm *StatsManager) RecordRound(ctx context.Context, imposter string, caught bool, accusers, participants []string) error {
	now := time.Now().Unix()

	for _, name := range participants {
		stats, err := sm.getOrCreateStats(ctx, name)
		if err != nil {
			return err
		}

		stats.RoundsPlayed++
		stats.LastPlayedAt = now
		if name == imposter {
			stats.ImposterRounds++
			if !caught {
				stats.Escapes++
			}
		}

		if err := sm.SavePlayerStats(ctx, stats); err != nil {
			return err
		}
	}

	for _, name := range accusers {
		stats, err := sm.getOrCreateStats(ctx, name)
		if err != nil {
			return err
		}

		stats.CorrectAccusations++
		if err := sm.SavePlayerStats(ctx, stats); err != nil {
			return err
		}
	}

	return nil
}
