package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultFCMHost = "https://fcm.googleapis.com"

// TokenSource supplies OAuth2 bearer tokens for the FCM HTTP v1 API.
// Implementations typically wrap a Google service account credential.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token describes the token operation and its observable behavior.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// FCMConfig defines a public type used by push delivery.
//
// FCMConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FCMConfig struct {
	// ProjectID is the Firebase project the registration tokens belong to.
	ProjectID string
	// Host overrides the production endpoint, e.g. for tests.
	Host string
}

// FCM sends notifications through Firebase Cloud Messaging (HTTP v1).
//
// FCM instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FCM struct {
	cfg    FCMConfig
	tokens TokenSource
	client *http.Client
}

// NewFCM describes the newfcm operation and its observable behavior.
//
// NewFCM may return an error when input validation, dependency calls, or security checks fail.
// NewFCM does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewFCM(cfg FCMConfig, tokens TokenSource, client *http.Client) (*FCM, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("fcm: project id required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("fcm: token source required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultFCMHost
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FCM{
		cfg:    cfg,
		tokens: tokens,
		client: client,
	}, nil
}

type fcmMessage struct {
	Message struct {
		Token        string            `json:"token"`
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data,omitempty"`
	} `json:"message"`
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *FCM) Send(ctx context.Context, n Notification) error {
	bearer, err := f.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: obtain token: %v", ErrSendFailed, err)
	}

	var msg fcmMessage
	msg.Message.Token = n.Address
	msg.Message.Notification = map[string]string{
		"title": "Authentication request",
		"body":  n.Text,
	}
	if n.SessionKey != "" || n.Challenge != "" {
		msg.Message.Data = map[string]string{
			"sessionKey": n.SessionKey,
			"challenge":  n.Challenge,
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("fcm: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", f.cfg.Host, f.cfg.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%w: fcm status %d %s %s", ErrSendFailed, resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
	}
	return nil
}
