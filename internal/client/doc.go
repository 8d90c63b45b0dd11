// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync engine application runtime.
//
// It wires the local storages, the remote endpoint adapter, the engine
// services and the background workers into a single daemon lifecycle.
package client
