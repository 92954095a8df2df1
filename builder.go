package ocrauth

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ocrauth/ocrauth/storage"
)

// Builder defines a public type used by ocrauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store    storage.Store
	redis    redis.UniversalClient
	verifier ResponseVerifier
	secrets  SecretDecrypter

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store storage.Store) *Builder {
	b.store = store
	return b
}

// WithRedis is a convenience for WithStore(storage.NewRedis(client, "")).
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithVerifier describes the withverifier operation and its observable behavior.
//
// WithVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithVerifier(v ResponseVerifier) *Builder {
	b.verifier = v
	return b
}

// WithSecretDecrypter describes the withsecretdecrypter operation and its observable behavior.
//
// WithSecretDecrypter may return an error when input validation, dependency calls, or security checks fail.
// WithSecretDecrypter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSecretDecrypter(d SecretDecrypter) *Builder {
	b.secrets = d
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	normalizeConfig(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = storage.NewRedis(b.redis, "")
	}
	if store == nil {
		store = storage.NewMemory()
	}

	verifier := b.verifier
	if verifier == nil {
		v, err := NewOCRAVerifier(cfg.OCRA.Suite, cfg.OCRA.ProtocolVersion)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:   cfg,
		store:    store,
		verifier: verifier,
		secrets:  b.secrets,
		audit:    startAuditPipeline(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
	}

	b.built = true
	return engine, nil
}
