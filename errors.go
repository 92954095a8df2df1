package ocrauth

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidRequest is an exported constant or variable used by the authentication engine.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSessionNotFound is an exported constant or variable used by the authentication engine.
	ErrSessionNotFound = errors.New("authentication session not found")
	// ErrEnrollmentNotFound is an exported constant or variable used by the authentication engine.
	ErrEnrollmentNotFound = errors.New("enrollment session not found")
	// ErrEnrollmentSecretInvalid is an exported constant or variable used by the authentication engine.
	ErrEnrollmentSecretInvalid = errors.New("enrollment secret invalid")
	// ErrUnsupportedProtocolVersion is an exported constant or variable used by the authentication engine.
	ErrUnsupportedProtocolVersion = errors.New("unsupported protocol version")
	// ErrVerificationUnavailable is an exported constant or variable used by the authentication engine.
	ErrVerificationUnavailable = errors.New("verification backend unavailable")
	// ErrConfigInvalid is an exported constant or variable used by the authentication engine.
	ErrConfigInvalid = errors.New("invalid configuration")
)
