package upload

import (
	"sync"
	"time"

	"rumagent/pkg/logger"
	"rumagent/pkg/monitor"
)

// Gate evaluates current system state into the set of upload blockers.
// Implemented by *Conditions; tests substitute fakes.
type Gate interface {
	Blockers() []Blocker
}

// WorkerConfig assembles a Worker's collaborators.
type WorkerConfig struct {
	Delay    *Delay
	Gate     Gate
	Reader   BatchReader
	Uploader Uploader
	Monitor  monitor.Sink
}

// Worker owns the recurring upload schedule. All of its state (delay, timer
// handle, reader and uploader interaction) is owned by a single goroutine
// draining the work channel; public synchronous operations submit onto that
// goroutine and block until done, so no two operations ever run
// concurrently and the worker needs no locks around its own state.
//
// Tick lifecycle: a pending time.AfterFunc submits the tick; the tick body
// consults the gate, moves at most one batch, adjusts the delay and
// unconditionally reschedules. CancelSync stops the pending timer inside the
// same serialization domain, so a reschedule issued by an in-flight tick can
// never resurrect a cancelled schedule.
type Worker struct {
	work chan func()

	// owned by the loop goroutine
	delay     *Delay
	gate      Gate
	reader    BatchReader
	uploader  Uploader
	mon       monitor.Sink
	timer     *time.Timer
	cancelled bool

	mu       sync.Mutex // guards closed + work submission
	closed   bool
	loopDone chan struct{}
}

// NewWorker starts the worker loop and schedules the first tick after
// Delay.Current().
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Delay == nil {
		cfg.Delay = NewDelay(0, 0, 0)
	}
	w := &Worker{
		work:     make(chan func(), 16),
		delay:    cfg.Delay,
		gate:     cfg.Gate,
		reader:   cfg.Reader,
		uploader: cfg.Uploader,
		mon:      cfg.Monitor,
		loopDone: make(chan struct{}),
	}
	go w.loop()
	w.submit(func() { w.schedule(w.delay.Current()) })
	return w
}

// FlushSync drains the entire durable queue right now, ignoring upload
// conditions and retry status: every batch is uploaded once and
// unconditionally marked consumed. This is the at-most-once emergency drain
// used at teardown; it trades delivery guarantees for forward progress.
func (w *Worker) FlushSync() {
	w.perform(func() {
		for {
			batch, ok := w.reader.ReadNextBatch()
			if !ok {
				return
			}
			status := w.uploader.Upload(batch.Payload)
			w.surface(status)
			w.reader.MarkBatchAsRead(batch)
			flushedBatches.Inc()
		}
	})
}

// CancelSync stops the pending tick and prevents any further scheduling. A
// tick already executing runs to completion but will not reschedule.
// Cancelling a cancelled or closed worker is a no-op.
func (w *Worker) CancelSync() {
	w.perform(func() {
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.cancelled = true
	})
}

// Close stops the worker goroutine. It cancels first, so Close is safe to
// call on a running worker; after Close all operations are no-ops.
func (w *Worker) Close() {
	w.CancelSync()
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.work)
	}
	w.mu.Unlock()
	<-w.loopDone
}

func (w *Worker) loop() {
	defer close(w.loopDone)
	for job := range w.work {
		job()
	}
}

// submit enqueues a job onto the worker's serialization context. Returns
// false when the worker is closed (lifecycle misuse is defined as a no-op).
func (w *Worker) submit(job func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.work <- job
	return true
}

// perform runs job on the worker goroutine and blocks the caller until it
// completes.
func (w *Worker) perform(job func()) {
	done := make(chan struct{})
	if !w.submit(func() {
		job()
		close(done)
	}) {
		return
	}
	<-done
}

func (w *Worker) schedule(d time.Duration) {
	if w.cancelled {
		return
	}
	w.timer = time.AfterFunc(d, func() {
		w.submit(w.tick)
	})
}

func (w *Worker) tick() {
	if w.cancelled {
		// the tick was already queued when cancellation ran; drop it
		return
	}
	w.attempt()
	w.schedule(w.delay.Current())
}

// attempt moves at most one batch. Backoff increases on any non-productive
// outcome and decreases only on confirmed delivery.
func (w *Worker) attempt() {
	blockers := w.gate.Blockers()
	if len(blockers) > 0 {
		w.delay.Increase()
		ticksTotal.WithLabelValues(tickBlocked).Inc()
		logger.Debug("upload_blocked", "blockers", Describe(blockers))
		return
	}

	batch, ok := w.reader.ReadNextBatch()
	if !ok {
		// system ready but nothing to send; still back off so an idle
		// agent does not busy-poll storage
		w.delay.Increase()
		ticksTotal.WithLabelValues(tickEmpty).Inc()
		return
	}

	status := w.uploader.Upload(batch.Payload)
	w.surface(status)
	if status.NeedsRetry {
		// batch stays in the queue and will be read again
		w.delay.Increase()
		ticksTotal.WithLabelValues(tickRetried).Inc()
		logger.Debug("upload_retry", "bytes", len(batch.Payload), "next_delay", w.delay.Current())
		return
	}

	w.reader.MarkBatchAsRead(batch)
	w.delay.Decrease()
	ticksTotal.WithLabelValues(tickDelivered).Inc()
}

// surface forwards attempt messages to the user and monitoring sinks. Both
// are best-effort and independent of the retry outcome.
func (w *Worker) surface(status Status) {
	if status.UserMessage != "" {
		logger.User(status.UserMessage)
	}
	if status.Diagnostic != nil && w.mon != nil {
		w.mon.Notify(status.Diagnostic.Message, status.Diagnostic.Cause, status.Diagnostic.Attributes)
	}
}
