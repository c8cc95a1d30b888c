package engine

import "errors"

// Sentinel errors for programmer errors made directly against the API.
// Data drift (stale edges, corrupt persistence) never surfaces as an error;
// those paths recover and log instead.
var (
	// ErrNotFound is returned when a call names an unknown node.
	ErrNotFound = errors.New("node not found")

	// ErrUnknownMotion is returned when Apply is given a motion outside
	// the closed set.
	ErrUnknownMotion = errors.New("unknown motion")

	// ErrNoStore is returned by persistence operations on an engine
	// constructed without a store.
	ErrNoStore = errors.New("engine has no persistence store")
)
