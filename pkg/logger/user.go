package logger

import (
	"golang.org/x/time/rate"
)

// The user-facing sink carries human-readable messages the embedding
// application may surface to its developer console (upload warnings,
// intake rejections). It is rate limited so a retry loop cannot spam the
// host app's output; dropped messages are counted but never block.
var userLimiter = rate.NewLimiter(rate.Limit(1), 10)

// SetUserRate replaces the user sink rate limit (messages per second and
// burst). Intended for startup configuration and tests.
func SetUserRate(perSec float64, burst int) {
	if perSec <= 0 {
		perSec = 1
	}
	if burst <= 0 {
		burst = 10
	}
	userLimiter = rate.NewLimiter(rate.Limit(perSec), burst)
}

// User emits a human-readable message to the user-facing sink. Best-effort:
// messages over the rate limit are dropped silently.
func User(msg string, args ...any) {
	if Log == nil || msg == "" {
		return
	}
	if !userLimiter.Allow() {
		return
	}
	Log.Warn(msg, args...)
}
