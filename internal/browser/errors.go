package browser

import "errors"

var (
	// ErrSessionNotReady indicates an operation was attempted before Start.
	ErrSessionNotReady = errors.New("session not started")

	// ErrScreenshotFailed indicates the page capture could not be written.
	ErrScreenshotFailed = errors.New("screenshot capture failed")
)
