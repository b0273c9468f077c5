package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLoginSucceeded is a no-op.
func (n *NoopRecorder) IncLoginSucceeded() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncAuthDenied is a no-op.
func (n *NoopRecorder) IncAuthDenied(reason string) {}

// IncIdentityCacheHit is a no-op.
func (n *NoopRecorder) IncIdentityCacheHit() {}

// IncIdentityCacheMiss is a no-op.
func (n *NoopRecorder) IncIdentityCacheMiss() {}

// IncTemplateCreated is a no-op.
func (n *NoopRecorder) IncTemplateCreated() {}

// IncTemplateUpdated is a no-op.
func (n *NoopRecorder) IncTemplateUpdated() {}

// IncTemplateDeleted is a no-op.
func (n *NoopRecorder) IncTemplateDeleted() {}
