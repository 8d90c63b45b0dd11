// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

func TestManualMonitor_FiresOnlyOnTransition(t *testing.T) {
	m := NewManualMonitor()

	var calls []bool
	m.OnChange(func(online, _ bool) {
		calls = append(calls, online)
	})

	assert.False(t, m.IsOnline(), "monitor starts offline")

	m.Set(true, true)
	m.Set(true, true) // no transition
	m.Set(false, false)

	assert.Equal(t, []bool{true, false}, calls)
	assert.False(t, m.IsOnline())
	assert.False(t, m.IsWifi())
}

func TestManualMonitor_WifiTransition(t *testing.T) {
	m := NewManualMonitor()

	var calls int
	m.OnChange(func(_, _ bool) { calls++ })

	m.Set(true, true)
	m.Set(true, false) // same online state, wifi dropped
	assert.Equal(t, 2, calls)
	assert.True(t, m.IsOnline())
	assert.False(t, m.IsWifi())
}

func TestProbeMonitor_TracksEndpoint(t *testing.T) {
	var mu sync.Mutex
	reachable := true
	remote := &fakeRemote{
		statusFn: func(_ context.Context) (models.StatusResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			if !reachable {
				return models.StatusResponse{}, errors.New("connection refused")
			}
			return models.StatusResponse{ServerTime: time.Now().UTC()}, nil
		},
	}

	p := NewProbeMonitor(remote, 5*time.Millisecond, logger.Nop())

	var transMu sync.Mutex
	var transitions []bool
	p.OnChange(func(online, wifi bool) {
		transMu.Lock()
		defer transMu.Unlock()
		transitions = append(transitions, online)
		assert.Equal(t, online, wifi, "probe monitor cannot see the link type")
	})

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, p.IsOnline, 2*time.Second, 5*time.Millisecond,
		"first successful probe flips the monitor online")

	mu.Lock()
	reachable = false
	mu.Unlock()

	require.Eventually(t, func() bool { return !p.IsOnline() }, 2*time.Second, 5*time.Millisecond)

	transMu.Lock()
	defer transMu.Unlock()
	assert.Equal(t, []bool{true, false}, transitions)
}
