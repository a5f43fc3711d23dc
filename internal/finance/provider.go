package finance

import "context"

// FetchOptions carries the caller's per-call cancellation signal. The
// provider's HTTP timeout is not composed into it here; httpclient.Client.Do
// composes each request's context with that timeout (platform.Compose).
type FetchOptions struct {
	CancelSignal context.Context
}

// Provider is the polymorphic capability contract every upstream adapter
// satisfies (§4.4). A provider MUST NOT be consulted by the federation
// engine when Supports or Enabled returns false.
type Provider interface {
	ID() string
	DisplayName() string
	Supports(intent Intent) bool
	Enabled() bool
	Fetch(ctx context.Context, query NormalizedQuery, opts FetchOptions) (Result, error)
}
