// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// stubOrchestrator counts Sync calls; everything else is inert.
type stubOrchestrator struct {
	mu        sync.Mutex
	settings  models.SyncSettings
	canSync   bool
	syncCalls int
	syncErr   error
}

func (s *stubOrchestrator) Sync(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCalls++
	return s.syncErr
}

func (s *stubOrchestrator) CanSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSync
}

func (s *stubOrchestrator) State() models.SyncState { return models.SyncState{} }

func (s *stubOrchestrator) Subscribe() <-chan models.SyncState   { return nil }
func (s *stubOrchestrator) Unsubscribe(<-chan models.SyncState)  {}
func (s *stubOrchestrator) History(_ context.Context, _ int) ([]models.SyncRecord, error) {
	return nil, nil
}

func (s *stubOrchestrator) Settings() models.SyncSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *stubOrchestrator) UpdateSettings(_ context.Context, settings models.SyncSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *stubOrchestrator) CreateBackup(_ context.Context, _ string) (models.BackupData, error) {
	return models.BackupData{}, nil
}

func (s *stubOrchestrator) RestoreBackup(_ context.Context, _ string, _ bool) error { return nil }

func (s *stubOrchestrator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncCalls
}

func TestSyncJob_Tick(t *testing.T) {
	tests := []struct {
		name      string
		settings  models.SyncSettings
		canSync   bool
		lastRun   time.Duration // how long ago the previous run was
		wantCalls int
	}{
		{
			name:      "disabled",
			settings:  models.SyncSettings{Frequency: models.FrequencyInterval, Interval: time.Minute},
			canSync:   true,
			lastRun:   2 * time.Minute,
			wantCalls: 0,
		},
		{
			name:      "manual frequency never ticks",
			settings:  models.SyncSettings{Enabled: true, Frequency: models.FrequencyManual},
			canSync:   true,
			lastRun:   2 * time.Minute,
			wantCalls: 0,
		},
		{
			name:      "interval not elapsed",
			settings:  models.SyncSettings{Enabled: true, Frequency: models.FrequencyInterval, Interval: time.Hour},
			canSync:   true,
			lastRun:   time.Minute,
			wantCalls: 0,
		},
		{
			name:      "cannot sync",
			settings:  models.SyncSettings{Enabled: true, Frequency: models.FrequencyInterval, Interval: time.Minute},
			canSync:   false,
			lastRun:   2 * time.Minute,
			wantCalls: 0,
		},
		{
			name:      "due and allowed",
			settings:  models.SyncSettings{Enabled: true, Frequency: models.FrequencyInterval, Interval: time.Minute},
			canSync:   true,
			lastRun:   2 * time.Minute,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubOrchestrator{settings: tt.settings, canSync: tt.canSync}
			job := NewSyncJob(stub, logger.Nop()).(*syncJob)

			now := time.Now()
			lastRun := now.Add(-tt.lastRun)
			job.tick(context.Background(), now, &lastRun)

			assert.Equal(t, tt.wantCalls, stub.calls())
			if tt.wantCalls > 0 {
				assert.Equal(t, now, lastRun, "a fired tick records its run time")
			}
		})
	}
}

func TestSyncJob_StartAndStop(t *testing.T) {
	stub := &stubOrchestrator{
		settings: models.SyncSettings{Enabled: true, Frequency: models.FrequencyInterval, Interval: time.Millisecond},
		canSync:  true,
	}
	job := NewSyncJob(stub, logger.Nop())

	job.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return stub.calls() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	job.Stop()
	callsAfterStop := stub.calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, callsAfterStop, stub.calls(), "no ticks fire after Stop")
}
