package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	eng, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngine_BasicOperations(t *testing.T) {
	eng := testEngine(t)

	require.NoError(t, eng.Put([]byte("a"), []byte("1")))

	v, err := eng.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	ok, err := eng.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, eng.Delete([]byte("a")))
	_, err = eng.Get([]byte("a"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	ok, err = eng.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, eng.Put(nil, []byte("x")), engine.ErrEmptyKey)
}

func TestEngine_InMemory(t *testing.T) {
	eng, err := New(engine.MemoryConfig())
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Put([]byte("k"), []byte("v")))
	v, err := eng.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestEngine_BatchAndIterator(t *testing.T) {
	eng := testEngine(t)

	batch := eng.NewBatch()
	batch.Put([]byte("p/1"), []byte("a"))
	batch.Put([]byte("p/2"), []byte("b"))
	batch.Put([]byte("q/1"), []byte("c"))
	require.NoError(t, batch.Write())
	assert.ErrorIs(t, batch.Write(), engine.ErrBatchClosed)

	iter := eng.NewPrefixIterator([]byte("p/"))
	defer iter.Close()

	var values []string
	for iter.First(); iter.Valid(); iter.Next() {
		values = append(values, string(iter.Value()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a", "b"}, values)
}

func TestEngine_Closed(t *testing.T) {
	eng, err := New(engine.MemoryConfig())
	require.NoError(t, err)
	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	_, err = eng.Get([]byte("a"))
	assert.True(t, engine.IsClosed(err))
	assert.ErrorIs(t, eng.Start(), engine.ErrClosed)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)

	_, err = New(&engine.Config{})
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
