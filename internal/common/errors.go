// Package common defines sentinel errors shared by the storage, upload and
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Configuration errors, raised at construction time.
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownBackend = errors.New("unknown remote storage backend")

	// Upload errors, fatal to the save that triggered them.
	ErrUploadFailed = errors.New("upload failed")
	ErrRemoteWrite  = errors.New("remote write failed")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
