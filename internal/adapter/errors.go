package adapter

import "errors"

// Sentinel transport errors. The engine's error taxonomy maps onto these:
// ErrConnectivity retries automatically on reconnect, ErrUnauthorized
// suspends syncing until re-authentication, ErrValidation parks the item as
// failed without automatic retry, ErrServer retries with backoff up to the
// attempt cap.
var (
	ErrConnectivity = errors.New("remote endpoint unreachable")
	ErrUnauthorized = errors.New("client unauthorized")
	ErrValidation   = errors.New("payload rejected by server")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("version conflict")
	ErrServer       = errors.New("server error")
)
