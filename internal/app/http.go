package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rumagent/internal/retention"
	"rumagent/pkg/logger"
	"rumagent/pkg/rum"
)

// commandRequest is the JSON body shared by the command endpoints. Key names
// a view identity; At defaults to the arrival time when absent.
type commandRequest struct {
	Key        string         `json:"key,omitempty"`
	Name       string         `json:"name,omitempty"`
	Message    string         `json:"message,omitempty"`
	At         string         `json:"at,omitempty"` // RFC3339Nano
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (c *commandRequest) time() time.Time {
	if c.At != "" {
		if t, err := time.Parse(time.RFC3339Nano, c.At); err == nil {
			return t
		}
	}
	return time.Now()
}

// startHTTP starts the local command and diagnostics API when configured.
// The listener binds loopback by convention; this is host-local IPC, not a
// public surface.
func (a *App) startHTTP() <-chan error {
	errCh := make(chan error, 1)
	if a.cfg.Debug.Addr == "" {
		return errCh
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.readyzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/views/start", a.startViewHandler).Methods(http.MethodPost)
	v1.HandleFunc("/views/stop", a.stopViewHandler).Methods(http.MethodPost)
	v1.HandleFunc("/actions", a.addActionHandler).Methods(http.MethodPost)
	v1.HandleFunc("/errors", a.addErrorHandler).Methods(http.MethodPost)
	v1.HandleFunc("/context", a.contextHandler).Methods(http.MethodGet)
	v1.HandleFunc("/flush", a.flushHandler).Methods(http.MethodPost)
	v1.HandleFunc("/upload/cancel", a.cancelHandler).Methods(http.MethodPost)
	v1.HandleFunc("/retention/run", a.retentionRunHandler).Methods(http.MethodPost)
	v1.HandleFunc("/stats", a.statsHandler).Methods(http.MethodGet)

	a.srv = &http.Server{Addr: a.cfg.Debug.Addr, Handler: r}
	go func() {
		logger.Info("command_api_listening", "addr", a.cfg.Debug.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": a.version})
}

func (a *App) startViewHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCommand(w, r)
	if !ok {
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	id := a.identities.acquire(req.Key)
	a.provider.Process(rum.StartViewCommand{
		At:         req.time(),
		Identity:   id,
		Name:       req.Name,
		Attributes: req.Attributes,
	})
	writeJSON(w, http.StatusAccepted, a.provider.CurrentContext())
}

func (a *App) stopViewHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCommand(w, r)
	if !ok {
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	a.provider.Process(rum.StopViewCommand{At: req.time(), Identity: a.identities.lookup(req.Key)})
	// released after processing so the view could emit its stop event
	a.identities.release(req.Key)
	writeJSON(w, http.StatusAccepted, a.provider.CurrentContext())
}

func (a *App) addActionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCommand(w, r)
	if !ok {
		return
	}
	a.provider.Process(rum.AddActionCommand{At: req.time(), Name: req.Name, Attributes: req.Attributes})
	writeJSON(w, http.StatusAccepted, a.provider.CurrentContext())
}

func (a *App) addErrorHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCommand(w, r)
	if !ok {
		return
	}
	a.provider.Process(rum.AddErrorCommand{At: req.time(), Message: req.Message, Attributes: req.Attributes})
	writeJSON(w, http.StatusAccepted, a.provider.CurrentContext())
}

func (a *App) contextHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.provider.CurrentContext())
}

func (a *App) flushHandler(w http.ResponseWriter, _ *http.Request) {
	a.worker.FlushSync()
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (a *App) cancelHandler(w http.ResponseWriter, _ *http.Request) {
	a.worker.CancelSync()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (a *App) retentionRunHandler(w http.ResponseWriter, _ *http.Request) {
	purged, err := retention.RunOnce(a.cfg.Retention, a.store)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

func (a *App) statsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_len":       a.queue.Len(),
		"queue_dropped":   a.queue.Dropped(),
		"pending_batches": a.store.Count(),
		"monitor_dropped": a.mon.Dropped(),
	})
}

func decodeCommand(w http.ResponseWriter, r *http.Request) (commandRequest, bool) {
	var req commandRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return req, false
		}
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
