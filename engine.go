package ocrauth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ocrauth/ocrauth/storage"
)

// Storage key prefixes. Raw identifiers are HMAC-hashed before use, so the
// prefix is the only readable part of a key.
const (
	prefixChallenge        = "challenge"
	prefixEnrollment       = "enroll"
	prefixEnrollmentSecret = "enrollsecret"
	prefixEnrollmentStatus = "enrollstatus"
	prefixAuthenticated    = "authsession"
)

const sessionKeyBytes = 16

// Engine defines a public type used by ocrauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	store    storage.Store
	verifier ResponseVerifier
	secrets  SecretDecrypter
	audit    *auditPipeline
	metrics  *Metrics
	logger   *slog.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.verifier == nil {
		return ErrEngineNotReady
	}
	return nil
}

// stateKey derives the storage key for a raw identifier. Raw session keys and
// enrollment secrets double as bearer credentials, so only a keyed hash of
// them ever reaches the store.
func (e *Engine) stateKey(prefix, raw string) string {
	mac := hmac.New(sha256.New, e.config.Sessions.StateSalt)
	mac.Write([]byte(raw))
	return prefix + ":" + hex.EncodeToString(mac.Sum(nil))
}

// stateEnvelope wraps every stored payload with its creation time and
// lifetime so expiry holds even on backends without native TTLs.
type stateEnvelope struct {
	CreatedAt int64           `cbor:"1,keyasint"`
	TTL       int64           `cbor:"2,keyasint"`
	Payload   cbor.RawMessage `cbor:"3,keyasint"`
}

func (env stateEnvelope) expired(now time.Time) bool {
	if env.TTL <= 0 {
		return false
	}
	return now.Unix() >= env.CreatedAt+env.TTL
}

func (e *Engine) setState(ctx context.Context, prefix, raw string, payload any, ttl time.Duration) error {
	body, err := cbor.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode state payload: %w", err)
	}
	env := stateEnvelope{
		CreatedAt: time.Now().Unix(),
		TTL:       int64(ttl / time.Second),
		Payload:   body,
	}
	data, err := cbor.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode state envelope: %w", err)
	}
	return e.store.SetValue(ctx, e.stateKey(prefix, raw), data, ttl)
}

// getState loads a state entry into payload. It reports false when the entry
// is absent or past its lifetime; expired entries are deleted best-effort.
func (e *Engine) getState(ctx context.Context, prefix, raw string, payload any) (bool, error) {
	key := e.stateKey(prefix, raw)
	data, err := e.store.GetValue(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	env, err := decodeEnvelope(data, payload)
	if err != nil {
		return false, err
	}
	if env.expired(time.Now()) {
		if uerr := e.store.UnsetValue(ctx, key); uerr != nil {
			e.logger.Warn("failed to delete expired state entry", "prefix", prefix, "error", uerr)
		}
		return false, nil
	}
	return true, nil
}

// takeState atomically claims a state entry. At most one caller observes true
// for a given entry; an expired entry is consumed but reported absent.
func (e *Engine) takeState(ctx context.Context, prefix, raw string, payload any) (bool, error) {
	data, err := e.store.TakeValue(ctx, e.stateKey(prefix, raw))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	env, err := decodeEnvelope(data, payload)
	if err != nil {
		return false, err
	}
	if env.expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

func (e *Engine) unsetState(ctx context.Context, prefix, raw string) error {
	return e.store.UnsetValue(ctx, e.stateKey(prefix, raw))
}

func decodeEnvelope(data []byte, payload any) (stateEnvelope, error) {
	var env stateEnvelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return stateEnvelope{}, fmt.Errorf("decode state envelope: %w", err)
	}
	if payload != nil {
		if err := cbor.Unmarshal(env.Payload, payload); err != nil {
			return stateEnvelope{}, fmt.Errorf("decode state payload: %w", err)
		}
	}
	return env, nil
}

// randomKey returns a fresh session or enrollment key: 16 bytes from
// crypto/rand, hex encoded. The hex form also serves as OCRA session
// information when the configured suite carries an S input.
func randomKey() (string, error) {
	buf := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
