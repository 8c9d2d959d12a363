package service

import "errors"

var (
	// ErrInvalidRecord wraps validation failures of a submitted inventory record.
	ErrInvalidRecord = errors.New("invalid inventory record")
	// ErrStorageNotConfigured is returned by Publish when no object storage is wired.
	ErrStorageNotConfigured = errors.New("object storage is not configured")
)
