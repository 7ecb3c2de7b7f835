package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/gridmatch/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Responses []coremqtt.Response
	// Fail makes every Publish call return an error.
	Fail bool
	mu   sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the response or returns an error if configured to fail.
func (m *MockPublisher) Publish(res coremqtt.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Responses = append(m.Responses, res)
	return nil
}

// Published returns a copy of the recorded responses.
func (m *MockPublisher) Published() []coremqtt.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Response(nil), m.Responses...)
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
