package service

import "errors"

var (
	// ErrSyncInProgress is returned when a sync pass is requested while
	// another pass is already running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSyncUnavailable is returned when CanSync is false: offline, or
	// the wifiOnly restriction blocks the current connection.
	ErrSyncUnavailable = errors.New("sync unavailable")

	// ErrBackupBusy is returned when a backup operation is requested
	// while a sync pass is running.
	ErrBackupBusy = errors.New("backup refused while sync is running")

	// ErrUnknownResolution is returned for a resolution policy outside
	// the supported set.
	ErrUnknownResolution = errors.New("unknown resolution policy")

	// ErrEmptyResolutionPayload is returned when a merged or manual
	// resolution carries no payload.
	ErrEmptyResolutionPayload = errors.New("resolution payload required")

	// ErrInvalidDataProvided is returned when a request is missing required
	// fields.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrWrongPassword is returned when credentials do not match the stored
	// account.
	ErrWrongPassword = errors.New("wrong password")
)
