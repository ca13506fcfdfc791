package words

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matttsch/imposter/internal/apperrors"
)

func TestLoadWordList(t *testing.T) {
	t.Parallel()

	content := "apple\n\n# comment\nbanana\napple\n  cherry  \n"
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	words, err := LoadWordList(path)
	require.NoError(t, err)

	// Deduplicated, trimmed, comments and blanks dropped
	assert.Equal(t, []string{"apple", "banana", "cherry"}, words)
}

func TestLoadWordList_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only comments\n\n"), 0o600))

	words, err := LoadWordList(path)
	assert.Error(t, err)
	assert.Nil(t, words)
}

func TestLoadWordList_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadWordList("/nonexistent/words.txt")
	assert.Error(t, err)
}

func TestNewPool_EmptyList(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Nil(t, pool)
}

func TestPool_NoRepeatsUntilExhausted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	list := []string{"a", "b", "c", "d", "e"}
	pool, err := NewPool(ctx, list, nil)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < len(list); i++ {
		word, err := pool.Pick(ctx)
		require.NoError(t, err)
		assert.False(t, seen[word], "word %q picked twice", word)
		seen[word] = true
		assert.Equal(t, len(list)-i-1, pool.Remaining())
	}

	// Pool exhausted - further picks fail without touching state
	_, err = pool.Pick(ctx)
	assert.ErrorIs(t, err, apperrors.ErrPoolExhausted)
	assert.Equal(t, 0, pool.Remaining())
}

func TestPool_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool, err := NewPool(ctx, []string{"a", "b"}, nil)
	require.NoError(t, err)

	_, err = pool.Pick(ctx)
	require.NoError(t, err)
	_, err = pool.Pick(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, pool.Remaining())

	pool.Reset(ctx)
	assert.Equal(t, 2, pool.Remaining())
}

// fakeStore records used words in memory.
type fakeStore struct {
	used []string
}

func (f *fakeStore) AddUsedWord(_ context.Context, word string) error {
	f.used = append(f.used, word)
	return nil
}

func (f *fakeStore) UsedWords(_ context.Context) ([]string, error) {
	return f.used, nil
}

func (f *fakeStore) ClearUsedWords(_ context.Context) error {
	f.used = nil
	return nil
}

func TestPool_RestoresUsedWordsFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &fakeStore{used: []string{"a", "b"}}

	pool, err := NewPool(ctx, []string{"a", "b", "c"}, store)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Remaining())

	// Only "c" is left
	word, err := pool.Pick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", word)
	assert.Contains(t, store.used, "c")

	pool.Reset(ctx)
	assert.Empty(t, store.used)
	assert.Equal(t, 3, pool.Remaining())
}
