package push

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAPNSHost = "https://api.push.apple.com"

	// Apple accepts provider tokens up to an hour old; refresh well before.
	apnsTokenLifetime = 50 * time.Minute
)

// APNSConfig defines a public type used by push delivery.
//
// APNSConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APNSConfig struct {
	// TeamID and KeyID identify the Apple developer account and the signing
	// key registered for it.
	TeamID string
	KeyID  string
	// SigningKeyPEM is the PKCS#8 ES256 key downloaded from Apple.
	SigningKeyPEM []byte
	// Topic is the app bundle identifier.
	Topic string
	// Host overrides the production endpoint, e.g. for the sandbox.
	Host string
}

// APNS sends notifications through the Apple Push Notification service using
// token-based provider authentication.
//
// APNS instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APNS struct {
	cfg    APNSConfig
	key    *ecdsa.PrivateKey
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenIssued time.Time
}

// NewAPNS describes the newapns operation and its observable behavior.
//
// NewAPNS may return an error when input validation, dependency calls, or security checks fail.
// NewAPNS does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAPNS(cfg APNSConfig, client *http.Client) (*APNS, error) {
	if cfg.TeamID == "" || cfg.KeyID == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("apns: team id, key id, and topic required")
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(cfg.SigningKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("apns: parse signing key: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = defaultAPNSHost
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &APNS{
		cfg:    cfg,
		key:    key,
		client: client,
	}, nil
}

// providerToken returns a signed ES256 provider token, reusing the cached
// one until it nears Apple's age limit.
func (a *APNS) providerToken(now time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && now.Sub(a.tokenIssued) < apnsTokenLifetime {
		return a.token, nil
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": a.cfg.TeamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = a.cfg.KeyID

	signed, err := tok.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("apns: sign provider token: %w", err)
	}

	a.token = signed
	a.tokenIssued = now
	return signed, nil
}

type apnsPayload struct {
	APS        apnsAPS `json:"aps"`
	SessionKey string  `json:"sessionKey,omitempty"`
	Challenge  string  `json:"challenge,omitempty"`
}

type apnsAPS struct {
	Alert    string `json:"alert"`
	Sound    string `json:"sound,omitempty"`
	Category string `json:"category,omitempty"`
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *APNS) Send(ctx context.Context, n Notification) error {
	token, err := a.providerToken(time.Now())
	if err != nil {
		return err
	}

	body, err := json.Marshal(apnsPayload{
		APS: apnsAPS{
			Alert:    n.Text,
			Sound:    "default",
			Category: "AUTH",
		},
		SessionKey: n.SessionKey,
		Challenge:  n.Challenge,
	})
	if err != nil {
		return fmt.Errorf("apns: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Host+"/3/device/"+n.Address, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apns-topic", a.cfg.Topic)
	req.Header.Set("apns-push-type", "alert")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var apiErr struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	return fmt.Errorf("%w: apns status %d reason %q", ErrSendFailed, resp.StatusCode, apiErr.Reason)
}
