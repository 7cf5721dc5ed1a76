package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryEnqueue([]byte("hello")))
	assert.Equal(t, 1, q.Len())

	it := <-q.Out()
	assert.Equal(t, []byte("hello"), it.Payload)
	it.Done()
}

func TestQueueCopiesPayload(t *testing.T) {
	q := NewQueue(4)
	src := []byte("mutate me")
	require.NoError(t, q.TryEnqueue(src))
	src[0] = 'X'

	it := <-q.Out()
	assert.Equal(t, []byte("mutate me"), it.Payload)
	it.Done()
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.TryEnqueue([]byte("a")))
	require.NoError(t, q.TryEnqueue([]byte("b")))

	err := q.TryEnqueue([]byte("c"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 2, q.Len())
}

func TestQueueCloseRejectsNewItemsButDrains(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryEnqueue([]byte("a")))
	q.Close()

	assert.ErrorIs(t, q.TryEnqueue([]byte("b")), ErrQueueClosed)

	it, ok := <-q.Out()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), it.Payload)
	it.Done()

	_, ok = <-q.Out()
	assert.False(t, ok, "channel closes after draining")
}

func TestQueueCloseIdempotent(t *testing.T) {
	q := NewQueue(2)
	q.Close()
	q.Close()
}

func TestItemDoneIdempotent(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.TryEnqueue([]byte("a")))
	it := <-q.Out()
	it.Done()
	it.Done()
}

func TestQueueFallbackCapacity(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, fallbackQueueCapacity, q.Cap())
	assert.Equal(t, defaultQueueCapacity, NewDefaultQueue().Cap())
}
