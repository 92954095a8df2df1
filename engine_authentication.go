package ocrauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// challengeState is the payload stored under the challenge prefix for the
// lifetime of one authentication attempt.
type challengeState struct {
	SessionID string `cbor:"1,keyasint"`
	Challenge string `cbor:"2,keyasint"`
	ServiceID string `cbor:"3,keyasint,omitempty"`
	UserID    string `cbor:"4,keyasint,omitempty"`
}

// StartAuthenticationSession creates a challenge bound to the caller's
// application session and returns the session key the mobile client will
// present. Pass a non-empty userID to pin the challenge to one user for
// step-up authentication; leave it empty for identity-less login.
//
// StartAuthenticationSession may return an error when input validation, dependency calls, or security checks fail.
// StartAuthenticationSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartAuthenticationSession(ctx context.Context, userID, appSessionID, serviceID string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if appSessionID == "" {
		return "", fmt.Errorf("%w: application session id required", ErrInvalidRequest)
	}

	sessionKey, err := randomKey()
	if err != nil {
		return "", err
	}
	challenge, err := e.verifier.GenerateChallenge()
	if err != nil {
		return "", err
	}

	st := challengeState{
		SessionID: appSessionID,
		Challenge: challenge,
		ServiceID: serviceID,
		UserID:    userID,
	}
	if err := e.setState(ctx, prefixChallenge, sessionKey, st, e.config.Sessions.ChallengeTTL); err != nil {
		return "", err
	}

	e.metricInc(MetricAuthSessionStarted)
	e.emitAudit(ctx, auditEventAuthSessionStarted, true, userID, appSessionID, nil, nil)

	return sessionKey, nil
}

// AuthenticationURL builds the deep link a mobile client opens or scans to
// answer the challenge behind sessionKey.
//
// AuthenticationURL may return an error when input validation, dependency calls, or security checks fail.
// AuthenticationURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuthenticationURL(ctx context.Context, sessionKey string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	var st challengeState
	ok, err := e.getState(ctx, prefixChallenge, sessionKey, &st)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, "session key unknown or expired")
	}

	u := e.config.Identity.AuthProtocol + "://"
	if st.UserID != "" {
		u += url.QueryEscape(st.UserID) + "@"
	}
	u += e.config.Identity.Identifier +
		"/" + sessionKey +
		"/" + st.Challenge +
		"/" + url.QueryEscape(st.ServiceID) +
		"/" + strconv.Itoa(e.config.OCRA.ProtocolVersion)
	return u, nil
}

// Authenticate validates an OCRA response for the challenge behind
// sessionKey. The caller resolves userID to its stored secret beforehand;
// the engine never reads secret material from its own store.
//
// A wrong response leaves the challenge in place so the user can retry until
// it expires. A correct response consumes the challenge exactly once and
// marks the bound application session authenticated. The returned result is
// only meaningful when the error is nil.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authenticate(ctx context.Context, userID, userSecret, sessionKey, response string) (AuthResult, error) {
	if err := e.ready(); err != nil {
		return AuthResultInvalidRequest, err
	}
	if userID == "" || sessionKey == "" || response == "" {
		e.metricInc(MetricAuthInvalidRequest)
		return AuthResultInvalidRequest, nil
	}

	var st challengeState
	ok, err := e.getState(ctx, prefixChallenge, sessionKey, &st)
	if err != nil {
		return AuthResultInvalidRequest, err
	}
	if !ok {
		e.metricInc(MetricAuthInvalidChallenge)
		e.emitAudit(ctx, auditEventAuthFailure, false, userID, "", ErrSessionNotFound, nil)
		return AuthResultInvalidChallenge, nil
	}

	// Step-up sessions are pinned to one user. Enforced before verification
	// so a valid response for the wrong account still reads as a user
	// mismatch.
	if st.UserID != "" && st.UserID != userID {
		e.metricInc(MetricAuthInvalidUser)
		e.emitAudit(ctx, auditEventAuthFailure, false, userID, st.SessionID, ErrInvalidRequest, map[string]string{"reason": "user_mismatch"})
		return AuthResultInvalidUserID, nil
	}

	secret := userSecret
	if e.secrets != nil {
		plain, err := e.secrets.Decrypt(userSecret)
		if err != nil {
			return AuthResultInvalidRequest, fmt.Errorf("decrypt user secret: %w", err)
		}
		secret = string(plain)
	}

	valid, err := e.verifier.VerifyResponse(ctx, response, userID, secret, st.Challenge, sessionKey)
	if err != nil {
		return AuthResultInvalidRequest, err
	}
	if !valid {
		e.metricInc(MetricAuthInvalidResponse)
		e.emitAudit(ctx, auditEventAuthFailure, false, userID, st.SessionID, nil, map[string]string{"reason": "invalid_response"})
		return AuthResultInvalidResponse, nil
	}

	// Claim the challenge after verification so concurrent correct responses
	// resolve to exactly one winner.
	claimed, err := e.takeState(ctx, prefixChallenge, sessionKey, &challengeState{})
	if err != nil {
		return AuthResultInvalidRequest, err
	}
	if !claimed {
		e.metricInc(MetricAuthInvalidChallenge)
		e.emitAudit(ctx, auditEventAuthFailure, false, userID, st.SessionID, nil, map[string]string{"reason": "challenge_already_consumed"})
		return AuthResultInvalidChallenge, nil
	}

	if err := e.setState(ctx, prefixAuthenticated, st.SessionID, userID, e.config.Sessions.AuthenticatedTTL); err != nil {
		// The challenge is already consumed; fail closed rather than leave a
		// half-authenticated session.
		return AuthResultInvalidRequest, err
	}

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, auditEventAuthSuccess, true, userID, st.SessionID, nil, nil)

	return AuthResultAuthenticated, nil
}

// GetAuthenticatedUser returns the user authenticated for an application
// session, if any. It never fails: storage problems are logged and read as
// not authenticated.
func (e *Engine) GetAuthenticatedUser(ctx context.Context, appSessionID string) (string, bool) {
	if e == nil || e.store == nil || appSessionID == "" {
		return "", false
	}

	var userID string
	ok, err := e.getState(ctx, prefixAuthenticated, appSessionID, &userID)
	if err != nil {
		e.logger.Warn("failed to read authenticated session", "error", err)
		return "", false
	}
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// Logout drops the authenticated marker for an application session. Absence
// is not an error.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, appSessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if appSessionID == "" {
		return fmt.Errorf("%w: application session id required", ErrInvalidRequest)
	}
	if err := e.unsetState(ctx, prefixAuthenticated, appSessionID); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", appSessionID, nil, nil)
	return nil
}
