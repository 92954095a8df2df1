package ocrauth

import (
	"context"
	"fmt"
)

// enrollmentState is the payload stored under the enrollment prefix between
// session start and metadata retrieval.
type enrollmentState struct {
	UserID      string `cbor:"1,keyasint"`
	DisplayName string `cbor:"2,keyasint,omitempty"`
	SessionID   string `cbor:"3,keyasint"`
}

// enrollmentSecretState binds a one-time enrollment secret back to the user
// and application session it was issued for.
type enrollmentSecretState struct {
	UserID    string `cbor:"1,keyasint"`
	SessionID string `cbor:"2,keyasint"`
}

// StartEnrollmentSession opens an enrollment window for a user and returns
// the enrollment key embedded in the metadata URL handed to the device.
//
// StartEnrollmentSession may return an error when input validation, dependency calls, or security checks fail.
// StartEnrollmentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartEnrollmentSession(ctx context.Context, userID, displayName, appSessionID string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if userID == "" || appSessionID == "" {
		return "", fmt.Errorf("%w: user id and application session id required", ErrInvalidRequest)
	}

	enrollmentKey, err := randomKey()
	if err != nil {
		return "", err
	}
	st := enrollmentState{
		UserID:      userID,
		DisplayName: displayName,
		SessionID:   appSessionID,
	}
	if err := e.setState(ctx, prefixEnrollment, enrollmentKey, st, e.config.Sessions.EnrollmentTTL); err != nil {
		return "", err
	}
	if err := e.setEnrollmentStatus(ctx, appSessionID, EnrollmentInitialized); err != nil {
		return "", err
	}

	e.metricInc(MetricEnrollmentStarted)
	e.emitAudit(ctx, auditEventEnrollmentStarted, true, userID, appSessionID, nil, nil)

	return enrollmentKey, nil
}

// EnrollmentURL builds the deep link that points a device at the metadata
// endpoint. metadataURL is the caller's HTTPS endpoint with the enrollment
// key already embedded.
func (e *Engine) EnrollmentURL(metadataURL string) string {
	return e.config.Identity.EnrollProtocol + "://" + metadataURL
}

// GetEnrollmentMetadata resolves an enrollment key into the service and
// identity descriptors a device needs to provision an account. The
// enrollment key is single-use: the entry is consumed here, and a second
// retrieval fails. authenticationURL and enrollmentURL are the caller's
// endpoints for responses and secret exchange.
//
// GetEnrollmentMetadata may return an error when input validation, dependency calls, or security checks fail.
// GetEnrollmentMetadata does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetEnrollmentMetadata(ctx context.Context, enrollmentKey, authenticationURL, enrollmentURL string) (*EnrollmentMetadata, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	var st enrollmentState
	ok, err := e.takeState(ctx, prefixEnrollment, enrollmentKey, &st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: enrollment key unknown or expired", ErrEnrollmentNotFound)
	}

	if err := e.setEnrollmentStatus(ctx, st.SessionID, EnrollmentRetrieved); err != nil {
		return nil, err
	}

	meta := &EnrollmentMetadata{
		Service: ServiceMetadata{
			DisplayName:       e.config.Identity.DisplayName,
			Identifier:        e.config.Identity.Identifier,
			LogoURL:           e.config.Identity.LogoURL,
			InfoURL:           e.config.Identity.InfoURL,
			AuthenticationURL: authenticationURL,
			OCRASuite:         e.config.OCRA.Suite,
			EnrollmentURL:     enrollmentURL,
		},
		Identity: IdentityMetadata{
			Identifier:  st.UserID,
			DisplayName: st.DisplayName,
		},
	}

	e.metricInc(MetricEnrollmentRetrieved)
	e.emitAudit(ctx, auditEventEnrollmentRetrieved, true, st.UserID, st.SessionID, nil, nil)

	return meta, nil
}

// GetEnrollmentSecret issues a one-time secret exchange token for an active
// enrollment. The device presents it when uploading its OCRA secret, so the
// enrollment key itself is never exposed twice. The enrollment entry is read
// but not consumed; call this before [Engine.GetEnrollmentMetadata].
//
// GetEnrollmentSecret may return an error when input validation, dependency calls, or security checks fail.
// GetEnrollmentSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetEnrollmentSecret(ctx context.Context, enrollmentKey string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	var enrollment enrollmentState
	ok, err := e.getState(ctx, prefixEnrollment, enrollmentKey, &enrollment)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: enrollment key unknown or expired", ErrEnrollmentNotFound)
	}

	enrollmentSecret, err := randomKey()
	if err != nil {
		return "", err
	}
	st := enrollmentSecretState{
		UserID:    enrollment.UserID,
		SessionID: enrollment.SessionID,
	}
	if err := e.setState(ctx, prefixEnrollmentSecret, enrollmentSecret, st, e.config.Sessions.EnrollmentTTL); err != nil {
		return "", err
	}
	return enrollmentSecret, nil
}

// ValidateEnrollmentSecret checks a secret exchange token presented by a
// device and returns the user it belongs to. The token stays valid until
// [Engine.FinalizeEnrollment] consumes it, so a device may retry an
// interrupted upload.
//
// ValidateEnrollmentSecret may return an error when input validation, dependency calls, or security checks fail.
// ValidateEnrollmentSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateEnrollmentSecret(ctx context.Context, enrollmentSecret string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if enrollmentSecret == "" {
		return "", fmt.Errorf("%w: empty token", ErrEnrollmentSecretInvalid)
	}

	var st enrollmentSecretState
	ok, err := e.getState(ctx, prefixEnrollmentSecret, enrollmentSecret, &st)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: token unknown or expired", ErrEnrollmentSecretInvalid)
	}

	if err := e.setEnrollmentStatus(ctx, st.SessionID, EnrollmentProcessed); err != nil {
		return "", err
	}

	e.metricInc(MetricEnrollmentProcessed)
	e.emitAudit(ctx, auditEventEnrollmentProcessed, true, st.UserID, st.SessionID, nil, nil)

	return st.UserID, nil
}

// FinalizeEnrollment consumes the secret exchange token after the caller has
// stored the device's OCRA secret. It never fails: problems are logged and
// reported as false so the caller can surface a generic error.
func (e *Engine) FinalizeEnrollment(ctx context.Context, enrollmentSecret string) bool {
	if e == nil || e.store == nil || enrollmentSecret == "" {
		return false
	}

	var st enrollmentSecretState
	ok, err := e.takeState(ctx, prefixEnrollmentSecret, enrollmentSecret, &st)
	if err != nil {
		e.logger.Warn("failed to consume enrollment secret", "error", err)
		return false
	}
	if !ok {
		return false
	}

	if err := e.setEnrollmentStatus(ctx, st.SessionID, EnrollmentFinalized); err != nil {
		e.logger.Warn("failed to record finalized enrollment status", "error", err)
		return false
	}

	e.metricInc(MetricEnrollmentFinalized)
	e.emitAudit(ctx, auditEventEnrollmentFinalized, true, st.UserID, st.SessionID, nil, nil)

	return true
}

// ResetEnrollmentSession returns an application session's enrollment status
// to idle, abandoning any progress.
//
// ResetEnrollmentSession may return an error when input validation, dependency calls, or security checks fail.
// ResetEnrollmentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetEnrollmentSession(ctx context.Context, appSessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if appSessionID == "" {
		return fmt.Errorf("%w: application session id required", ErrInvalidRequest)
	}
	if err := e.setEnrollmentStatus(ctx, appSessionID, EnrollmentIdle); err != nil {
		return err
	}
	e.metricInc(MetricEnrollmentReset)
	return nil
}

// GetEnrollmentStatus reports where an application session stands in the
// enrollment flow. A session with no recorded status is idle.
//
// GetEnrollmentStatus may return an error when input validation, dependency calls, or security checks fail.
// GetEnrollmentStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetEnrollmentStatus(ctx context.Context, appSessionID string) (EnrollmentStatus, error) {
	if err := e.ready(); err != nil {
		return EnrollmentIdle, err
	}
	if appSessionID == "" {
		return EnrollmentIdle, fmt.Errorf("%w: application session id required", ErrInvalidRequest)
	}

	var status EnrollmentStatus
	ok, err := e.getState(ctx, prefixEnrollmentStatus, appSessionID, &status)
	if err != nil {
		return EnrollmentIdle, err
	}
	if !ok {
		return EnrollmentIdle, nil
	}
	return status, nil
}

func (e *Engine) setEnrollmentStatus(ctx context.Context, appSessionID string, status EnrollmentStatus) error {
	return e.setState(ctx, prefixEnrollmentStatus, appSessionID, status, e.config.Sessions.EnrollmentTTL)
}
