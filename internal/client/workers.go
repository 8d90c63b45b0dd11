package client

import (
	"context"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/service"
)

// monitorWorker adapts the connectivity probe to the workers contract.
type monitorWorker struct {
	ctx     context.Context
	monitor *service.ProbeMonitor
}

func newMonitorWorker(ctx context.Context, monitor *service.ProbeMonitor) *monitorWorker {
	return &monitorWorker{ctx: ctx, monitor: monitor}
}

func (w *monitorWorker) Run() {
	w.monitor.Start(w.ctx)
}

func (w *monitorWorker) Stop() {
	w.monitor.Stop()
}

// syncJobWorker adapts the interval sync job to the workers contract.
type syncJobWorker struct {
	ctx      context.Context
	job      service.SyncJob
	interval time.Duration
}

func newSyncJobWorker(ctx context.Context, job service.SyncJob, interval time.Duration) *syncJobWorker {
	return &syncJobWorker{ctx: ctx, job: job, interval: interval}
}

func (w *syncJobWorker) Run() {
	w.job.Start(w.ctx, w.interval)
}

func (w *syncJobWorker) Stop() {
	w.job.Stop()
}
