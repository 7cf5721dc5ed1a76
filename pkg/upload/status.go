package upload

// Diagnostic is a structured internal error surfaced only to the vendor's
// monitoring sink, never to the end user.
type Diagnostic struct {
	Message    string
	Cause      error
	Attributes map[string]any
}

// Status is the outcome of a single upload attempt. It is produced once per
// attempt and never persisted.
type Status struct {
	// NeedsRetry keeps the batch in the durable queue for a later attempt.
	NeedsRetry bool
	// UserMessage, when non-empty, is surfaced to the user-facing log sink.
	UserMessage string
	// Diagnostic, when non-nil, is surfaced to internal monitoring.
	Diagnostic *Diagnostic
}

// Batch is one unit of previously persisted event data ready for upload.
// Handle is opaque to the worker; it is only passed back to the reader to
// mark the batch consumed.
type Batch struct {
	Payload []byte
	Handle  string
}

// BatchReader pulls undelivered batches from durable storage in its defined
// order and marks them consumed.
type BatchReader interface {
	ReadNextBatch() (*Batch, bool)
	MarkBatchAsRead(*Batch)
}

// Uploader ships one batch payload. Implementations must not panic and are
// expected to return within a bounded time.
type Uploader interface {
	Upload(payload []byte) Status
}
