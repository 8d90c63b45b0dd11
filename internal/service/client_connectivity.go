package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
)

// ManualMonitor is a ConnectivityMonitor fed by an external source (a host
// application reporting platform network events, or tests). It starts
// offline until Set is called.
type ManualMonitor struct {
	mu     sync.Mutex
	online bool
	wifi   bool
	fn     func(online, wifi bool)
}

// NewManualMonitor returns a monitor in the offline state.
func NewManualMonitor() *ManualMonitor {
	return &ManualMonitor{}
}

// Set reports the current network condition. The callback fires only on an
// actual transition.
func (m *ManualMonitor) Set(online, wifi bool) {
	m.mu.Lock()
	changed := m.online != online || m.wifi != wifi
	m.online, m.wifi = online, wifi
	fn := m.fn
	m.mu.Unlock()

	if changed && fn != nil {
		fn(online, wifi)
	}
}

func (m *ManualMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ManualMonitor) IsWifi() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wifi
}

func (m *ManualMonitor) OnChange(fn func(online, wifi bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// ProbeMonitor derives connectivity by periodically probing the server
// status endpoint. It cannot see the link type, so it reports wifi for any
// reachable connection; deployments that need metered-link detection feed a
// ManualMonitor instead.
type ProbeMonitor struct {
	remote   adapter.RemoteEndpoint
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	online bool
	fn     func(online, wifi bool)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProbeMonitor builds a probe-based monitor. It starts offline until the
// first successful probe.
func NewProbeMonitor(remote adapter.RemoteEndpoint, interval time.Duration, log *logger.Logger) *ProbeMonitor {
	return &ProbeMonitor{remote: remote, interval: interval, logger: log}
}

// Start launches the probe loop. An immediate probe runs before the first
// tick so the engine does not wait a full interval to discover the server.
func (p *ProbeMonitor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.probe(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.probe(ctx)
			}
		}
	}()
}

// Stop terminates the probe loop and waits for it to exit.
func (p *ProbeMonitor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *ProbeMonitor) probe(ctx context.Context) {
	_, err := p.remote.Status(ctx)
	online := err == nil

	p.mu.Lock()
	changed := p.online != online
	p.online = online
	fn := p.fn
	p.mu.Unlock()

	if !changed {
		return
	}

	p.logger.Info().
		Str("func", "ProbeMonitor.probe").
		Bool("online", online).
		Msg("connectivity changed")
	if fn != nil {
		fn(online, online)
	}
}

func (p *ProbeMonitor) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *ProbeMonitor) IsWifi() bool {
	return p.IsOnline()
}

func (p *ProbeMonitor) OnChange(fn func(online, wifi bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn = fn
}
