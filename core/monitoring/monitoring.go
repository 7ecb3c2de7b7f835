// Package monitoring reports fatal clearing errors to an external error
// tracker. The process-wide monitor defaults to NopMonitor until Init is
// called, typically with the Sentry implementation from infra/monitoring.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Default returns the global monitor.
func Default() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	Default().CaptureException(err, tags)
}

// Recover captures panics in goroutines.
func Recover() {
	Default().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Default().Flush(d)
}
