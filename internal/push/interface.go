package push

// GatewayInterface defines the operations the backend needs from the push
// gateway. This enables mocking for unit tests without a real gateway
// connection.
//
// The gateway is the source of truth for topic membership; the backend only
// issues sends and membership changes. Subscribe and Unsubscribe are
// idempotent: subscribing an already-subscribed token and unsubscribing a
// never-subscribed token both succeed.
type GatewayInterface interface {
	// SendToTopic pushes a notification to every device subscribed to topic.
	// The data map carries deep-link ids for the client.
	SendToTopic(topic, title, body string, data map[string]string) error

	// SubscribeToTopic adds a device token to a topic.
	SubscribeToTopic(token, topic string) error

	// UnsubscribeFromTopic removes a device token from a topic.
	UnsubscribeFromTopic(token, topic string) error
}

// Ensure Client implements GatewayInterface
var _ GatewayInterface = (*Client)(nil)
