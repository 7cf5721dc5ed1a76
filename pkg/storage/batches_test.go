package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir() + "/batches")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendReadConsume(t *testing.T) {
	s := openTestStore(t)

	h1, err := s.AppendBatch([]byte("first"))
	require.NoError(t, err)
	_, err = s.AppendBatch([]byte("second"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	b, ok := s.ReadNextBatch()
	require.True(t, ok)
	assert.Equal(t, h1, b.Handle)
	assert.Equal(t, []byte("first"), b.Payload)

	// reading again without consuming yields the same batch
	again, ok := s.ReadNextBatch()
	require.True(t, ok)
	assert.Equal(t, b.Handle, again.Handle)

	s.MarkBatchAsRead(b)
	assert.Equal(t, 1, s.Count())

	next, ok := s.ReadNextBatch()
	require.True(t, ok)
	assert.Equal(t, []byte("second"), next.Payload)
	s.MarkBatchAsRead(next)

	_, ok = s.ReadNextBatch()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
}

func TestReadPreservesAppendOrder(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 20; i++ {
		_, err := s.AppendBatch([]byte(fmt.Sprintf("payload-%02d", i)))
		require.NoError(t, err)
	}

	for i := 0; i < 20; i++ {
		b, ok := s.ReadNextBatch()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("payload-%02d", i), string(b.Payload))
		s.MarkBatchAsRead(b)
	}
}

func TestBatchesSurviveReopen(t *testing.T) {
	dir := t.TempDir() + "/batches"
	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.AppendBatch([]byte("durable"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	b, ok := s.ReadNextBatch()
	require.True(t, ok)
	assert.Equal(t, []byte("durable"), b.Payload)
}

func TestMarkBatchAsReadNilIsNoop(t *testing.T) {
	s := openTestStore(t)
	s.MarkBatchAsRead(nil)
	assert.Equal(t, 0, s.Count())
}

func TestPurgeOlderThan(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AppendBatch([]byte("old"))
	require.NoError(t, err)
	_, err = s.AppendBatch([]byte("also old"))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = s.AppendBatch([]byte("fresh"))
	require.NoError(t, err)

	purged, err := s.PurgeOlderThan(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)
	assert.Equal(t, 1, s.Count())

	b, ok := s.ReadNextBatch()
	require.True(t, ok)
	assert.Equal(t, []byte("fresh"), b.Payload)
}

func TestPurgeNothingOld(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AppendBatch([]byte("fresh"))
	require.NoError(t, err)

	purged, err := s.PurgeOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, purged)
	assert.Equal(t, 1, s.Count())
}

func TestClosedStoreOperations(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.AppendBatch([]byte("x"))
	assert.Error(t, err)
	_, ok := s.ReadNextBatch()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
	// closing twice is fine
	assert.NoError(t, s.Close())
}

func TestBatchTimestampParsing(t *testing.T) {
	h, err := func() (string, error) {
		s := openTestStore(t)
		return s.AppendBatch([]byte("x"))
	}()
	require.NoError(t, err)

	ts, ok := batchTimestamp(h)
	require.True(t, ok)
	assert.InDelta(t, time.Now().UTC().UnixNano(), ts, float64(time.Minute))

	_, ok = batchTimestamp("garbage")
	assert.False(t, ok)
	_, ok = batchTimestamp("batch:nodigits")
	assert.False(t, ok)
}
