package upload

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu      sync.Mutex
	batches []*Batch
	marked  []string
	reads   int
}

func (r *fakeReader) add(handle string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, &Batch{Handle: handle, Payload: payload})
}

func (r *fakeReader) ReadNextBatch() (*Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if len(r.batches) == 0 {
		return nil, false
	}
	return r.batches[0], true
}

func (r *fakeReader) MarkBatchAsRead(b *Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.batches {
		if q.Handle == b.Handle {
			r.batches = append(r.batches[:i], r.batches[i+1:]...)
			break
		}
	}
	r.marked = append(r.marked, b.Handle)
}

func (r *fakeReader) markedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.marked)
}

func (r *fakeReader) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *fakeReader) remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type fakeUploader struct {
	uploads int64
	status  func() Status
}

func (u *fakeUploader) Upload(payload []byte) Status {
	atomic.AddInt64(&u.uploads, 1)
	if u.status == nil {
		return Status{}
	}
	return u.status()
}

func (u *fakeUploader) count() int64 { return atomic.LoadInt64(&u.uploads) }

type fakeGate struct {
	calls   int64
	blocked int32
}

func (g *fakeGate) Blockers() []Blocker {
	atomic.AddInt64(&g.calls, 1)
	if atomic.LoadInt32(&g.blocked) == 1 {
		return []Blocker{LowPowerModeBlocker{}}
	}
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *fakeSink) Notify(message string, cause error, attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func fastDelay() *Delay { return NewDelay(time.Millisecond, 4*time.Millisecond, 2) }

func TestWorkerDeliversAndConsumes(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("one"))
	reader.add("b2", []byte("two"))
	uploader := &fakeUploader{}
	gate := &fakeGate{}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})
	defer w.Close()

	require.Eventually(t, func() bool { return reader.markedCount() == 2 },
		time.Second, time.Millisecond)
	assert.Equal(t, int64(2), uploader.count())
	assert.Equal(t, 0, reader.remaining())
}

func TestWorkerMovesAtMostOneBatchPerTick(t *testing.T) {
	reader := &fakeReader{}
	for i := 0; i < 5; i++ {
		reader.add(string(rune('a'+i)), []byte{byte(i)})
	}
	uploader := &fakeUploader{}
	gate := &fakeGate{}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})
	defer w.Close()

	require.Eventually(t, func() bool { return reader.markedCount() == 5 },
		time.Second, time.Millisecond)
	// every upload was preceded by its own gate evaluation
	assert.GreaterOrEqual(t, atomic.LoadInt64(&gate.calls), uploader.count())
}

func TestWorkerRetryKeepsBatchQueued(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("payload"))
	uploader := &fakeUploader{status: func() Status {
		return Status{NeedsRetry: true}
	}}
	gate := &fakeGate{}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})
	defer w.Close()

	require.Eventually(t, func() bool { return uploader.count() >= 3 },
		time.Second, time.Millisecond)
	assert.Equal(t, 0, reader.markedCount(), "a retried batch must not be consumed")
	assert.Equal(t, 1, reader.remaining())
}

func TestWorkerBlockedDoesNotTouchStorage(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("payload"))
	uploader := &fakeUploader{}
	gate := &fakeGate{}
	atomic.StoreInt32(&gate.blocked, 1)

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})
	defer w.Close()

	require.Eventually(t, func() bool { return atomic.LoadInt64(&gate.calls) >= 3 },
		time.Second, time.Millisecond)
	assert.Equal(t, 0, reader.readCount(), "blocked ticks must not read batches")
	assert.Equal(t, int64(0), uploader.count())

	// unblocking lets the batch through
	atomic.StoreInt32(&gate.blocked, 0)
	require.Eventually(t, func() bool { return reader.markedCount() == 1 },
		time.Second, time.Millisecond)
}

func TestWorkerSurfacesDiagnostics(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("payload"))
	cause := errors.New("connect refused")
	uploader := &fakeUploader{status: func() Status {
		return Status{NeedsRetry: true, Diagnostic: &Diagnostic{Message: "intake unreachable", Cause: cause}}
	}}
	sink := &fakeSink{}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: &fakeGate{}, Reader: reader, Uploader: uploader, Monitor: sink})
	defer w.Close()

	require.Eventually(t, func() bool { return sink.count() >= 1 },
		time.Second, time.Millisecond)
}

func TestFlushSyncDrainsDespiteRetryStatus(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("one"))
	reader.add("b2", []byte("two"))
	reader.add("b3", []byte("three"))
	uploader := &fakeUploader{status: func() Status {
		return Status{NeedsRetry: true}
	}}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: &fakeGate{}, Reader: reader, Uploader: uploader})
	w.CancelSync()

	w.FlushSync()

	assert.Equal(t, 3, reader.markedCount(), "flush consumes every batch even when uploads fail")
	assert.Equal(t, 0, reader.remaining())
	assert.GreaterOrEqual(t, uploader.count(), int64(3))
	w.Close()
}

func TestFlushSyncIgnoresGate(t *testing.T) {
	reader := &fakeReader{}
	reader.add("b1", []byte("one"))
	uploader := &fakeUploader{}
	gate := &fakeGate{}
	atomic.StoreInt32(&gate.blocked, 1)

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})
	w.CancelSync()

	w.FlushSync()

	assert.Equal(t, 1, reader.markedCount())
	w.Close()
}

func TestCancelStopsScheduling(t *testing.T) {
	reader := &fakeReader{}
	uploader := &fakeUploader{}
	gate := &fakeGate{}

	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: gate, Reader: reader, Uploader: uploader})

	require.Eventually(t, func() bool { return atomic.LoadInt64(&gate.calls) >= 1 },
		time.Second, time.Millisecond)
	w.CancelSync()

	after := atomic.LoadInt64(&gate.calls)
	time.Sleep(50 * time.Millisecond)
	// a tick queued before cancellation may still run but is a no-op; at most
	// one more gate check can slip through
	assert.LessOrEqual(t, atomic.LoadInt64(&gate.calls), after+1)
	w.Close()
}

func TestWorkerCloseIsIdempotentAndFinal(t *testing.T) {
	w := NewWorker(WorkerConfig{Delay: fastDelay(), Gate: &fakeGate{}, Reader: &fakeReader{}, Uploader: &fakeUploader{}})
	w.Close()
	w.Close()

	// all operations on a closed worker are no-ops
	w.FlushSync()
	w.CancelSync()
}
