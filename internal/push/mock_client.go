package push

import "sync"

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockGateway is a mock implementation of GatewayInterface for testing.
// It allows configuring responses per method and tracks all calls for
// assertions.
type MockGateway struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides - set these to customize behavior
	SendToTopicFunc          func(topic, title, body string, data map[string]string) error
	SubscribeToTopicFunc     func(token, topic string) error
	UnsubscribeFromTopicFunc func(token, topic string) error

	// Default error returned when no override is set
	DefaultError error
}

// Ensure MockGateway implements GatewayInterface
var _ GatewayInterface = (*MockGateway)(nil)

// NewMockGateway creates a new mock gateway with sensible defaults
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Calls: make([]MockCall, 0),
	}
}

// recordCall records a method call for later assertion
func (m *MockGateway) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls (thread-safe)
func (m *MockGateway) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// GetCallsForMethod returns calls for a specific method
func (m *MockGateway) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockGateway) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

func (m *MockGateway) SendToTopic(topic, title, body string, data map[string]string) error {
	m.recordCall("SendToTopic", topic, title, body, data)
	if m.SendToTopicFunc != nil {
		return m.SendToTopicFunc(topic, title, body, data)
	}
	return m.DefaultError
}

func (m *MockGateway) SubscribeToTopic(token, topic string) error {
	m.recordCall("SubscribeToTopic", token, topic)
	if m.SubscribeToTopicFunc != nil {
		return m.SubscribeToTopicFunc(token, topic)
	}
	return m.DefaultError
}

func (m *MockGateway) UnsubscribeFromTopic(token, topic string) error {
	m.recordCall("UnsubscribeFromTopic", token, topic)
	if m.UnsubscribeFromTopicFunc != nil {
		return m.UnsubscribeFromTopicFunc(token, topic)
	}
	return m.DefaultError
}
