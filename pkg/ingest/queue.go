package ingest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Default and configuration values.
const defaultQueueCapacity = 4 * 1024
const fallbackQueueCapacity = 256

// maxPooledBuffer controls the largest buffer that will be returned to the
// pool. Buffers larger than this are dropped so resident memory stays
// bounded.
var maxPooledBuffer = 256 * 1024 // 256 KiB

// SetMaxPooledBuffer overrides the pooled buffer cap. Intended for startup
// configuration, before any queue is in use.
func SetMaxPooledBuffer(n int) {
	if n > 0 {
		maxPooledBuffer = n
	}
}

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("event queue full")

// ErrQueueClosed is returned when enqueue is attempted after close.
var ErrQueueClosed = errors.New("event queue closed")

var itemPool = sync.Pool{New: func() any { return &Item{} }}

// Item wraps one encoded event payload and owns a pooled ByteBuffer.
// Consumers MUST call Done() exactly once after processing.
type Item struct {
	Payload []byte

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// Done releases pooled resources back to their pools.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			if cap(it.buf.B) > maxPooledBuffer {
				// drop the buffer so GC can reclaim the underlying array
				it.buf = nil
			} else {
				bytebufferpool.Put(it.buf)
				it.buf = nil
			}
		}
		it.Payload = nil
		itemPool.Put(it)
	})
}

// Queue is the bounded in-memory buffer between the scope hierarchy
// (producer of encoded events) and the batching processor. Producers never
// block: when the queue is full the event is dropped and counted. Telemetry
// loss under pressure is preferable to stalling the instrumented app.
type Queue struct {
	ch       chan *Item
	capacity int
	dropped  uint64
	closed   int32

	enqWg     sync.WaitGroup
	closeOnce sync.Once
}

// NewQueue creates a bounded Queue of the given capacity (>0).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = fallbackQueueCapacity
	}
	return &Queue{ch: make(chan *Item, capacity), capacity: capacity}
}

// NewDefaultQueue creates a Queue with the default capacity.
func NewDefaultQueue() *Queue { return NewQueue(defaultQueueCapacity) }

// Out exposes items for the processor (do not close from callers).
func (q *Queue) Out() <-chan *Item { return q.ch }

// TryEnqueue copies payload into a pooled buffer and enqueues it without
// blocking. Returns ErrQueueFull or ErrQueueClosed on failure.
func (q *Queue) TryEnqueue(payload []byte) error {
	if atomic.LoadInt32(&q.closed) == 1 {
		return ErrQueueClosed
	}

	q.enqWg.Add(1)
	defer q.enqWg.Done()

	if atomic.LoadInt32(&q.closed) == 1 {
		return ErrQueueClosed
	}

	it := itemPool.Get().(*Item)
	bb := bytebufferpool.Get()
	bb.B = append(bb.B[:0], payload...)
	it.Payload = bb.B[:len(payload)]
	it.buf = bb
	it.once = sync.Once{}

	select {
	case q.ch <- it:
		return nil
	default:
		it.Done()
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Close marks the queue closed and closes the channel once in-flight
// enqueues finish. Remaining items stay readable from Out until drained.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		atomic.StoreInt32(&q.closed, 1)
		q.enqWg.Wait()
		close(q.ch)
	})
}

// Len returns the current number of queued items.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *Queue) Cap() int { return q.capacity }

// Dropped returns the number of events dropped due to a full queue.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
