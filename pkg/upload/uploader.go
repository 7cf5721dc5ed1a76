package upload

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// IntakeUploader ships batch payloads to the collection endpoint over HTTP.
// Response mapping: 2xx is delivered; 408, 429, 5xx and transport errors are
// retried; any other status drops the batch with a user-visible warning.
type IntakeUploader struct {
	url      string
	clientID string
	timeout  time.Duration
	client   *fasthttp.Client
}

// NewIntakeUploader creates an uploader posting to url. clientID is sent as
// an identification header; timeout bounds each attempt.
func NewIntakeUploader(url, clientID string, timeout time.Duration) *IntakeUploader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IntakeUploader{
		url:      url,
		clientID: clientID,
		timeout:  timeout,
		client:   &fasthttp.Client{Name: "rumagent"},
	}
}

// Upload sends one payload and reports the attempt outcome. It never panics
// and never returns an error: every failure mode maps onto a Status.
func (u *IntakeUploader) Upload(payload []byte) Status {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/msgpack")
	if u.clientID != "" {
		req.Header.Set("X-Client-ID", u.clientID)
	}
	req.SetBody(payload)

	if err := u.client.DoTimeout(req, resp, u.timeout); err != nil {
		return Status{
			NeedsRetry: true,
			Diagnostic: &Diagnostic{
				Message:    "intake request failed",
				Cause:      err,
				Attributes: map[string]any{"url": u.url, "bytes": len(payload)},
			},
		}
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return Status{}
	case code == fasthttp.StatusRequestTimeout,
		code == fasthttp.StatusTooManyRequests,
		code >= 500:
		return Status{
			NeedsRetry: true,
			Diagnostic: &Diagnostic{
				Message:    "intake rejected batch, will retry",
				Attributes: map[string]any{"status": code},
			},
		}
	default:
		// Client errors are permanent: retrying the same payload cannot
		// succeed, so the batch is dropped.
		return Status{
			UserMessage: fmt.Sprintf("telemetry intake refused a batch (HTTP %d); data was discarded", code),
			Diagnostic: &Diagnostic{
				Message:    "intake refused batch",
				Attributes: map[string]any{"status": code},
			},
		}
	}
}
