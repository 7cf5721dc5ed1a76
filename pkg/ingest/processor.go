package ingest

import (
	"time"

	"rumagent/pkg/logger"
)

// Default batching parameters.
const (
	defaultMaxEvents     = 64
	defaultFlushInterval = time.Second
)

// Sink receives assembled batch payloads. Implemented by *storage.Store.
type Sink interface {
	AppendBatch(payload []byte) (string, error)
}

// Processor drains the event queue and persists batches: it collects up to
// maxEvents payloads or whatever arrived within flushInterval of the first
// one, concatenates them into a single payload (events are already
// individually msgpack-encoded, so concatenation is a valid stream) and
// appends it to the durable store.
type Processor struct {
	q             *Queue
	sink          Sink
	maxEvents     int
	flushInterval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewProcessor creates a Processor; zero batching parameters get defaults.
func NewProcessor(q *Queue, sink Sink, maxEvents int, flushInterval time.Duration) *Processor {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return &Processor{
		q:             q,
		sink:          sink,
		maxEvents:     maxEvents,
		flushInterval: flushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the batching loop.
func (p *Processor) Start() {
	go p.run()
}

// Stop flushes everything still queued and waits for the loop to exit.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Processor) run() {
	defer close(p.done)
	for {
		var first *Item
		select {
		case it, ok := <-p.q.Out():
			if !ok {
				return
			}
			first = it
		case <-p.stop:
			p.drainRemaining()
			return
		}

		items := []*Item{first}
		timer := time.NewTimer(p.flushInterval)
	collect:
		for len(items) < p.maxEvents {
			select {
			case it, ok := <-p.q.Out():
				if !ok {
					break collect
				}
				items = append(items, it)
			case <-timer.C:
				break collect
			case <-p.stop:
				break collect
			}
		}
		timer.Stop()
		p.writeBatch(items)
	}
}

// drainRemaining empties the queue without waiting for more producers.
func (p *Processor) drainRemaining() {
	var items []*Item
	for {
		select {
		case it, ok := <-p.q.Out():
			if !ok {
				p.writeBatch(items)
				return
			}
			items = append(items, it)
			if len(items) >= p.maxEvents {
				p.writeBatch(items)
				items = nil
			}
		default:
			p.writeBatch(items)
			return
		}
	}
}

// writeBatch concatenates item payloads into one batch payload, persists it
// and releases the items. A failed append loses this batch; the producer
// side has no replay, so the loss is logged and counted.
func (p *Processor) writeBatch(items []*Item) {
	if len(items) == 0 {
		return
	}
	defer func() {
		for _, it := range items {
			it.Done()
		}
	}()

	total := 0
	for _, it := range items {
		total += len(it.Payload)
	}
	payload := make([]byte, 0, total)
	for _, it := range items {
		payload = append(payload, it.Payload...)
	}

	if _, err := p.sink.AppendBatch(payload); err != nil {
		logger.Error("batch_persist_failed", "events", len(items), "bytes", total, "error", err)
		return
	}
	logger.Debug("batch_persisted", "events", len(items), "bytes", total)
}
