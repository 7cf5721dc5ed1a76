// Package app assembles the agent: scope hierarchy, event queue, batch
// store, upload worker and the local command API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rumagent/internal/retention"
	"rumagent/pkg/banner"
	"rumagent/pkg/config"
	"rumagent/pkg/event"
	"rumagent/pkg/ingest"
	"rumagent/pkg/logger"
	"rumagent/pkg/monitor"
	"rumagent/pkg/rum"
	"rumagent/pkg/sensor"
	"rumagent/pkg/state"
	"rumagent/pkg/storage"
	"rumagent/pkg/upload"
)

// App encapsulates the agent components and lifecycle.
type App struct {
	cfg     *config.Config
	version string
	paths   state.Paths

	mon        *monitor.Monitor
	store      *storage.Store
	queue      *ingest.Queue
	proc       *ingest.Processor
	sensor     *sensor.Sensor
	provider   *rum.Provider
	worker     *upload.Worker
	identities *identityRegistry

	srv       *http.Server
	retCancel context.CancelFunc
}

// queueWriter connects the scope hierarchy to the event queue: each emitted
// event is encoded once and handed off without blocking.
type queueWriter struct {
	q *ingest.Queue
}

func (w *queueWriter) Write(e event.Event) {
	b, err := event.Encode(e)
	if err != nil {
		logger.Error("event_encode_failed", "type", string(e.Type), "error", err)
		return
	}
	if err := w.q.TryEnqueue(b); err != nil {
		logger.Warn("event_dropped", "type", string(e.Type), "error", err)
	}
}

// New initializes resources that do not require a running context (data
// directory, batch store, queue, scopes). It does not start pollers or the
// upload schedule; call Run to start those and block until shutdown.
func New(cfg *config.Config, version string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	paths, err := state.EnsureDirs(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}

	monDir := cfg.Debug.MonitorDir
	if monDir == "" {
		monDir = paths.Monitor
	}
	mon := monitor.New(monDir)

	store, err := storage.Open(paths.Batches)
	if err != nil {
		return nil, err
	}

	ingest.SetMaxPooledBuffer(int(cfg.Batch.MaxPooledBufferBytes.Int64()))
	var queue *ingest.Queue
	if cfg.Batch.QueueCapacity > 0 {
		queue = ingest.NewQueue(cfg.Batch.QueueCapacity)
	} else {
		queue = ingest.NewDefaultQueue()
	}

	a := &App{
		cfg:        cfg,
		version:    version,
		paths:      paths,
		mon:        mon,
		store:      store,
		queue:      queue,
		proc:       ingest.NewProcessor(queue, store, cfg.Batch.MaxEvents, cfg.Batch.FlushInterval.Duration()),
		sensor:     sensor.NewSensor(sensorInterval(cfg)),
		provider:   rum.NewProvider(cfg.Application.ID, &queueWriter{q: queue}),
		identities: newIdentityRegistry(),
	}
	return a, nil
}

// Run starts the pollers, the upload worker, retention and the local HTTP
// API, then blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.cfg, a.version)

	a.sensor.Start()
	a.proc.Start()

	a.worker = upload.NewWorker(upload.WorkerConfig{
		Delay: upload.NewDelay(
			a.cfg.Upload.MinDelay.Duration(),
			a.cfg.Upload.MaxDelay.Duration(),
			a.cfg.Upload.DelayFactor,
		),
		Gate:     upload.NewConditions(a.sensor),
		Reader:   a.store,
		Uploader: upload.NewIntakeUploader(a.cfg.Intake.URL, a.cfg.Intake.ClientID, a.cfg.Intake.Timeout.Duration()),
		Monitor:  a.mon,
	})

	retCancel, err := retention.Start(ctx, a.cfg.Retention, a.store)
	if err != nil {
		a.shutdown()
		return err
	}
	a.retCancel = retCancel

	errCh := a.startHTTP()
	logger.Info("agent_started", "application_id", a.cfg.Application.ID)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

// shutdown tears components down in dependency order: stop producing, drain
// what was produced, flush what was persisted, then release storage.
func (a *App) shutdown() {
	logger.Info("agent_stopping")

	if a.srv != nil {
		_ = a.srv.Close()
	}
	if a.retCancel != nil {
		a.retCancel()
	}

	a.queue.Close()
	a.proc.Stop()

	if a.worker != nil {
		a.worker.CancelSync()
		a.worker.FlushSync()
		a.worker.Close()
	}

	a.sensor.Stop()
	if err := a.store.Close(); err != nil {
		logger.Error("batch_store_close_failed", "error", err)
	}
	a.mon.Close()
	logger.Info("agent_stopped")
}

const defaultSensorInterval = 30 * time.Second

func sensorInterval(cfg *config.Config) time.Duration {
	if v := cfg.Sensor.Interval.Duration(); v > 0 {
		return v
	}
	return defaultSensorInterval
}
