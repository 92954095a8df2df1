package ocrauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventAuthSessionStarted  = "auth_session_started"
	auditEventAuthSuccess         = "auth_success"
	auditEventAuthFailure         = "auth_failure"
	auditEventLogout              = "logout"
	auditEventEnrollmentStarted   = "enrollment_started"
	auditEventEnrollmentRetrieved = "enrollment_retrieved"
	auditEventEnrollmentProcessed = "enrollment_processed"
	auditEventEnrollmentFinalized = "enrollment_finalized"
)

// AuditErrorCode defines a public type used by ocrauth APIs.
type AuditErrorCode string

const (
	auditErrInvalidRequest      AuditErrorCode = "invalid_request"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrEnrollmentNotFound  AuditErrorCode = "enrollment_not_found"
	auditErrSecretInvalid       AuditErrorCode = "enrollment_secret_invalid"
	auditErrVerifierUnavailable AuditErrorCode = "verifier_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrEnrollmentNotFound):
		return auditErrEnrollmentNotFound
	case errors.Is(err, ErrEnrollmentSecretInvalid):
		return auditErrSecretInvalid
	case errors.Is(err, ErrVerificationUnavailable):
		return auditErrVerifierUnavailable
	default:
		return auditErrInternal
	}
}
