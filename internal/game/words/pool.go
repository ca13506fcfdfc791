// Package words 管理一局游戏的词库：随机选词、不重复、用尽报错。
package words

import (
	"bufio"
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/matttsch/imposter/internal/apperrors"
)

// UsedStore 已用词的持久化存储（可选，用于进程重启后继续同一局）
type UsedStore interface {
	AddUsedWord(ctx context.Context, word string) error
	UsedWords(ctx context.Context) ([]string, error)
	ClearUsedWords(ctx context.Context) error
}

// Pool 词池。选词与标记已用在同一把锁内完成，
// 并发调用 Pick 不会返回同一个词。
type Pool struct {
	mu    sync.Mutex
	words []string
	used  map[string]bool
	store UsedStore
}

// LoadWordList 从文件加载候选词，按行分隔，忽略空行和 # 注释
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var words []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		if seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, errors.New("词库文件为空: " + path)
	}

	return words, nil
}

// NewPool 创建词池。store 可为 nil（不做持久化）。
// 若 store 中已有已用词记录，会恢复进度。
func NewPool(ctx context.Context, words []string, store UsedStore) (*Pool, error) {
	if len(words) == 0 {
		return nil, errors.New("词库为空")
	}

	p := &Pool{
		words: words,
		used:  make(map[string]bool),
		store: store,
	}

	if store != nil {
		usedWords, err := store.UsedWords(ctx)
		if err != nil {
			return nil, err
		}
		for _, w := range usedWords {
			p.used[w] = true
		}
	}

	return p, nil
}

// Pick 随机选出一个未用过的词并标记已用。
// 词用尽时返回 apperrors.ErrPoolExhausted，不改变任何状态。
func (p *Pool) Pick(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := make([]string, 0, len(p.words)-len(p.used))
	for _, w := range p.words {
		if !p.used[w] {
			available = append(available, w)
		}
	}

	if len(available) == 0 {
		return "", apperrors.ErrPoolExhausted
	}

	word := available[rand.IntN(len(available))]
	p.used[word] = true

	if p.store != nil {
		// 存储失败不阻塞游戏，仅丢失重启后的去重记录
		if err := p.store.AddUsedWord(ctx, word); err != nil {
			log.Printf("保存已用词失败: %v", err)
		}
	}

	return word, nil
}

// Remaining 返回剩余未用词数量
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.words) - len(p.used)
}

// Reset 清空已用词记录（游戏结束时调用，下一局重新计）
func (p *Pool) Reset(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.used = make(map[string]bool)

	if p.store != nil {
		if err := p.store.ClearUsedWords(ctx); err != nil {
			log.Printf("清空已用词失败: %v", err)
		}
	}
}
