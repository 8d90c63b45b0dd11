// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer between the sync engine and
// the remote endpoint.
//
// The primary abstraction is [RemoteEndpoint], which decouples the engine
// from the underlying protocol; the package ships an HTTP/REST
// implementation ([NewHTTPRemoteEndpoint]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401, [ErrServer] for 5xx).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-ledger-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_endpoint_mock.go -package=mock

// RemoteEndpoint defines transport-agnostic communication with the remote
// sync server. Implementations are responsible for serialisation, bearer
// token management, per-request timeouts, and mapping transport-level
// failures to the sentinel values defined in this package.
type RemoteEndpoint interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated requests. Called after a successful Login.
	SetToken(token string)

	// Token returns the bearer token currently held, or "" if none.
	Token() string

	// Register creates a server account and stores the issued token.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates and stores the issued token. A failure maps to
	// [ErrUnauthorized] for bad credentials.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// Push uploads a batch of queued mutations. The response reports
	// per-mutation acceptance and version conflicts; a transport-level
	// error means nothing in the batch was acknowledged.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches server deltas since the given checkpoint.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// Status fetches the server status summary. Doubles as the
	// connectivity probe target: a successful Status call means the
	// endpoint is reachable and the credentials are valid.
	Status(ctx context.Context) (models.StatusResponse, error)
}
