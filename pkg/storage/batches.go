package storage

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"rumagent/pkg/logger"
	"rumagent/pkg/upload"
)

// batch keys: batch:<unix_nano_padded>-<seq>. Zero padding keeps pebble's
// lexicographic order equal to append order; seq breaks same-nanosecond
// collisions.
const (
	batchPrefix = "batch:"
	batchEnd    = "batch;" // ';' sorts immediately after ':'
)

// Store is the durable batch queue backing the upload worker. One pebble key
// per batch, deleted when marked as read. All read-side operations are
// serialized by an internal mutex, so the producer (ingest processor) and
// consumer (upload worker) can share a Store without coordination.
type Store struct {
	mu   sync.Mutex
	db   *pebble.DB
	seq  uint64
	path string
}

// Open opens (or creates) the pebble database at path.
func Open(path string) (*Store, error) {
	logger.Info("opening_batch_store", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("batch_store_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open batch store at %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("batch_store_closed", "path", s.path)
	return err
}

// AppendBatch persists one batch payload and returns its handle.
func (s *Store) AppendBatch(payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", fmt.Errorf("batch store is closed")
	}
	s.seq++
	key := fmt.Sprintf("%s%020d-%06d", batchPrefix, time.Now().UTC().UnixNano(), s.seq)
	if err := s.db.Set([]byte(key), payload, pebble.Sync); err != nil {
		logger.Error("batch_append_failed", "key", key, "error", err)
		return "", err
	}
	batchesWritten.Inc()
	bytesWritten.Add(float64(len(payload)))
	return key, nil
}

// ReadNextBatch returns the oldest undelivered batch. Storage errors are
// reported as "no batch": the worker backs off and retries, and the agent
// must not fail over a read problem.
func (s *Store) ReadNextBatch() (*upload.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, false
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(batchPrefix),
		UpperBound: []byte(batchEnd),
	})
	if err != nil {
		logger.Error("batch_iter_failed", "error", err)
		return nil, false
	}
	defer iter.Close()
	if !iter.First() {
		return nil, false
	}
	key := append([]byte(nil), iter.Key()...)
	val := append([]byte(nil), iter.Value()...)
	batchesRead.Inc()
	return &upload.Batch{Payload: val, Handle: string(key)}, true
}

// MarkBatchAsRead permanently removes a delivered (or flushed) batch.
func (s *Store) MarkBatchAsRead(b *upload.Batch) {
	if b == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return
	}
	if err := s.db.Delete([]byte(b.Handle), pebble.Sync); err != nil {
		logger.Error("batch_mark_read_failed", "handle", b.Handle, "error", err)
		return
	}
	batchesConsumed.Inc()
}

// Count returns the number of pending batches. Used by tests and the debug
// endpoints; O(n) over pending keys.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(batchPrefix),
		UpperBound: []byte(batchEnd),
	})
	if err != nil {
		return 0
	}
	defer iter.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n
}

// PurgeOlderThan drops batches persisted more than age ago and returns how
// many were removed. Retention uses this to bound how stale shipped
// telemetry can get: data that old has lost its value.
func (s *Store) PurgeOlderThan(age time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, fmt.Errorf("batch store is closed")
	}
	cutoff := time.Now().UTC().Add(-age).UnixNano()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(batchPrefix),
		UpperBound: []byte(batchEnd),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	purged := 0
	for iter.First(); iter.Valid(); iter.Next() {
		ts, ok := batchTimestamp(string(iter.Key()))
		if !ok || ts >= cutoff {
			break
		}
		if err := s.db.Delete(append([]byte(nil), iter.Key()...), pebble.NoSync); err != nil {
			return purged, err
		}
		purged++
	}
	if purged > 0 {
		batchesPurged.Add(float64(purged))
		logger.Info("batches_purged", "count", purged, "max_age", age.String())
	}
	return purged, nil
}

// batchTimestamp extracts the creation time (ns) from a batch key.
func batchTimestamp(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, batchPrefix)
	if !ok {
		return 0, false
	}
	tsPart, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
