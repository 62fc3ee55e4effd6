package fetch

// Events is the sink the adapters report into. The server wires a
// Prometheus-backed implementation; tests and the zero value use NopEvents.
type Events interface {
	UpstreamError(provider string)
	FallbackServed(provider string)
	CacheHit(provider string)
	CacheMiss(provider string)
}

// NopEvents discards all adapter events.
type NopEvents struct{}

func (NopEvents) UpstreamError(string)  {}
func (NopEvents) FallbackServed(string) {}
func (NopEvents) CacheHit(string)       {}
func (NopEvents) CacheMiss(string)      {}
