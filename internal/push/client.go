package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultSendURL = "https://fcm.googleapis.com/fcm/send"
	defaultIIDURL  = "https://iid.googleapis.com/iid/v1"
)

// Client talks to an FCM-style push gateway over HTTP.
// Topic sends use the legacy send endpoint; topic membership uses the
// Instance ID API.
type Client struct {
	serverKey  string
	sendURL    string
	iidURL     string
	httpClient *http.Client
}

// NewClient creates a push gateway client from environment configuration.
// PUSH_GATEWAY_KEY is the server key; PUSH_GATEWAY_URL and
// PUSH_GATEWAY_IID_URL override the endpoints (used by tests).
func NewClient() (*Client, error) {
	serverKey := os.Getenv("PUSH_GATEWAY_KEY")
	if serverKey == "" {
		return nil, fmt.Errorf("PUSH_GATEWAY_KEY not set")
	}

	sendURL := os.Getenv("PUSH_GATEWAY_URL")
	if sendURL == "" {
		sendURL = defaultSendURL
	}
	iidURL := os.Getenv("PUSH_GATEWAY_IID_URL")
	if iidURL == "" {
		iidURL = defaultIIDURL
	}

	return &Client{
		serverKey: serverKey,
		sendURL:   sendURL,
		iidURL:    iidURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// NewClientWithEndpoints creates a client against explicit endpoints.
// Used by tests with an httptest server.
func NewClientWithEndpoints(serverKey, sendURL, iidURL string) *Client {
	return &Client{
		serverKey: serverKey,
		sendURL:   sendURL,
		iidURL:    iidURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sendRequest is the payload for a topic send
type sendRequest struct {
	To           string            `json:"to"`
	Notification sendNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type sendNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Icon        string `json:"icon,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
}

// SendToTopic pushes a notification to every device subscribed to topic
func (c *Client) SendToTopic(topic, title, body string, data map[string]string) error {
	payload := sendRequest{
		To: "/topics/" + topic,
		Notification: sendNotification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.sendURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push gateway send failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SubscribeToTopic adds a device token to a topic. Subscribing an
// already-subscribed token succeeds.
func (c *Client) SubscribeToTopic(token, topic string) error {
	url := fmt.Sprintf("%s/%s/rel/topics/%s", c.iidURL, token, topic)

	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build subscribe request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Length", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push gateway subscribe failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// UnsubscribeFromTopic removes a device token from a topic. Unsubscribing a
// token that was never subscribed succeeds.
func (c *Client) UnsubscribeFromTopic(token, topic string) error {
	url := fmt.Sprintf("%s/%s/rel/topics/%s", c.iidURL, token, topic)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the relationship never existed; removal is idempotent
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push gateway unsubscribe failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
