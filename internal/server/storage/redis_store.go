package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	roomKey      = "imposter:room"
	usedWordsKey = "imposter:used_words"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
type RoomData struct {
	Started     bool              `json:"started"`
	Word        string            `json:"word"`
	Imposter    string            `json:"imposter"`
	Players     []PlayerData      `json:"players"`
	Ballot      map[string]string `json:"ballot"`
	VoteHistory []VoteData        `json:"vote_history"`
	UpdatedAt   int64             `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Online   bool   `json:"online"`
	Eligible bool   `json:"eligible"`
}

// VoteData 单条投票记录
type VoteData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间快照到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	return rs.client.Set(ctx, roomKey, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间快照（仅返回数据，需要外部重建）
func (rs *RedisStore) LoadRoom(ctx context.Context) (*RoomData, error) {
	data, err := rs.client.Get(ctx, roomKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context) error {
	return rs.client.Del(ctx, roomKey).Err()
}

// --- 词语轮换记录 ---

// AddUsedWord 记录一个已用词语
func (rs *RedisStore) AddUsedWord(ctx context.Context, word string) error {
	return rs.client.SAdd(ctx, usedWordsKey, word).Err()
}

// UsedWords 获取所有已用词语
func (rs *RedisStore) UsedWords(ctx context.Context) ([]string, error) {
	return rs.client.SMembers(ctx, usedWordsKey).Result()
}

// ClearUsedWords 清空已用词语记录
func (rs *RedisStore) ClearUsedWords(ctx context.Context) error {
	return rs.client.Del(ctx, usedWordsKey).Err()
}
