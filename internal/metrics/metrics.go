// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLoginSucceeded()
	IncLoginFailed()

	// Authorization metrics
	IncAuthDenied(reason string) // reason: "missing_token", "malformed", "signature", "expired", "unknown_user", "policy"
	IncIdentityCacheHit()
	IncIdentityCacheMiss()

	// Template management metrics
	IncTemplateCreated()
	IncTemplateUpdated()
	IncTemplateDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
