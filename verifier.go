package ocrauth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ocrauth/ocrauth/ocra"
)

// ResponseVerifier checks OCRA responses and issues the challenges they
// answer. Implementations must be safe for concurrent use.
type ResponseVerifier interface {
	// VerifyResponse reports whether response is the correct OCRA response
	// for the given secret, challenge, and session information. An error
	// means verification could not be performed, not that it failed.
	VerifyResponse(ctx context.Context, response, userID, userSecret, challenge, sessionInfo string) (bool, error)

	// GenerateChallenge returns a fresh challenge question matching the
	// verifier's suite.
	GenerateChallenge() (string, error)
}

// OCRAVerifier verifies responses locally against a single OCRA suite.
//
// OCRAVerifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OCRAVerifier struct {
	suite ocra.Suite
}

// NewOCRAVerifier describes the newocraverifier operation and its observable behavior.
//
// NewOCRAVerifier may return an error when input validation, dependency calls, or security checks fail.
// NewOCRAVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewOCRAVerifier(suite string, protocolVersion int) (*OCRAVerifier, error) {
	if protocolVersion != ProtocolVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedProtocolVersion, protocolVersion)
	}
	s, err := ocra.ParseSuite(suite)
	if err != nil {
		return nil, err
	}
	return &OCRAVerifier{suite: s}, nil
}

// Suite returns the parsed suite this verifier operates on.
func (v *OCRAVerifier) Suite() ocra.Suite {
	return v.suite
}

// VerifyResponse describes the verifyresponse operation and its observable behavior.
//
// VerifyResponse may return an error when input validation, dependency calls, or security checks fail.
// VerifyResponse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *OCRAVerifier) VerifyResponse(ctx context.Context, response, userID, userSecret, challenge, sessionInfo string) (bool, error) {
	_ = ctx
	_ = userID

	// The stored challenge is in the suite's question alphabet; Compute takes
	// the hex encoding the client hashes over.
	question, err := v.suite.QuestionHex(challenge)
	if err != nil {
		return false, err
	}
	expected, err := v.suite.Compute(userSecret, "", question, "", sessionInfo, "")
	if err != nil {
		return false, err
	}
	if len(response) != len(expected) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(response), []byte(expected)) == 1, nil
}

// GenerateChallenge describes the generatechallenge operation and its observable behavior.
//
// GenerateChallenge may return an error when input validation, dependency calls, or security checks fail.
// GenerateChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *OCRAVerifier) GenerateChallenge() (string, error) {
	return ocra.GenerateChallenge(v.suite)
}

// RemoteVerifier delegates challenge generation and response verification to
// an external OATH validation service over HTTP. The user secret never leaves
// the remote service; the userSecret argument is ignored.
//
// RemoteVerifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteVerifier describes the newremoteverifier operation and its observable behavior.
//
// NewRemoteVerifier may return an error when input validation, dependency calls, or security checks fail.
// NewRemoteVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRemoteVerifier(baseURL, apiKey string, client *http.Client) (*RemoteVerifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base url required", ErrConfigInvalid)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}, nil
}

// VerifyResponse describes the verifyresponse operation and its observable behavior.
//
// VerifyResponse may return an error when input validation, dependency calls, or security checks fail.
// VerifyResponse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *RemoteVerifier) VerifyResponse(ctx context.Context, response, userID, userSecret, challenge, sessionInfo string) (bool, error) {
	_ = userSecret

	form := url.Values{}
	form.Set("userId", userID)
	form.Set("challenge", challenge)
	form.Set("response", response)
	form.Set("sessionInformation", sessionInfo)

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := v.post(ctx, "/oath/validate", form, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// GenerateChallenge describes the generatechallenge operation and its observable behavior.
//
// GenerateChallenge may return an error when input validation, dependency calls, or security checks fail.
// GenerateChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *RemoteVerifier) GenerateChallenge() (string, error) {
	var out struct {
		Challenge string `json:"challenge"`
	}
	if err := v.post(context.Background(), "/oath/challenge", url.Values{}, &out); err != nil {
		return "", err
	}
	if out.Challenge == "" {
		return "", fmt.Errorf("%w: empty challenge", ErrVerificationUnavailable)
	}
	return out.Challenge, nil
}

func (v *RemoteVerifier) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if v.apiKey != "" {
		req.Header.Set("X-OathService-Key", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrVerificationUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	return nil
}

// SecretDecrypter unwraps stored user secrets before local verification.
// [github.com/ocrauth/ocrauth/secrets.Registry] implements it.
type SecretDecrypter interface {
	Decrypt(stored string) ([]byte, error)
}
