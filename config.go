package ocrauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/ocrauth/ocrauth/ocra"
)

// ProtocolVersion is the only client protocol generation this engine speaks.
const ProtocolVersion = 2

// Config defines a public type used by ocrauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OCRA     OCRAConfig
	Identity IdentityConfig
	Sessions SessionsConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OCRA CONFIG
====================================
*/

// OCRAConfig defines a public type used by ocrauth APIs.
//
// OCRAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OCRAConfig struct {
	// Suite is the RFC 6287 suite string all challenges and responses use.
	Suite string
	// ProtocolVersion selects the client protocol generation. Only version 2
	// is supported; any other value fails validation.
	ProtocolVersion int
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig defines a public type used by ocrauth APIs.
//
// IdentityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type IdentityConfig struct {
	// Identifier names the authenticating service, typically its domain.
	Identifier  string
	DisplayName string
	LogoURL     string
	InfoURL     string

	// AuthProtocol and EnrollProtocol are the URL schemes handed to mobile
	// clients for authentication and enrollment deep links.
	AuthProtocol   string
	EnrollProtocol string
}

/*
====================================
SESSIONS CONFIG
====================================
*/

// SessionsConfig defines a public type used by ocrauth APIs.
//
// SessionsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionsConfig struct {
	ChallengeTTL     time.Duration
	EnrollmentTTL    time.Duration
	AuthenticatedTTL time.Duration

	// StateSalt keys the HMAC applied to raw session identifiers before they
	// are used as storage keys. Deployments sharing a store must share a salt.
	StateSalt []byte
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by ocrauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by ocrauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

const (
	defaultSuite          = "OCRA-1:HOTP-SHA1-6:QH10-S"
	defaultAuthProtocol   = "tiqrauth"
	defaultEnrollProtocol = "tiqrenroll"

	defaultChallengeTTL     = 180 * time.Second
	defaultEnrollmentTTL    = 300 * time.Second
	defaultAuthenticatedTTL = 3600 * time.Second
)

// Deployments should configure their own salt; the default only keeps
// single-node setups working out of the box.
var defaultStateSalt = []byte("ocrauth-state-hmac-default-salt")

func defaultConfig() Config {
	return Config{
		OCRA: OCRAConfig{
			Suite:           defaultSuite,
			ProtocolVersion: ProtocolVersion,
		},
		Identity: IdentityConfig{
			AuthProtocol:   defaultAuthProtocol,
			EnrollProtocol: defaultEnrollProtocol,
		},
		Sessions: SessionsConfig{
			ChallengeTTL:     defaultChallengeTTL,
			EnrollmentTTL:    defaultEnrollmentTTL,
			AuthenticatedTTL: defaultAuthenticatedTTL,
			StateSalt:        defaultStateSalt,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Sessions.StateSalt != nil {
		out.Sessions.StateSalt = append([]byte(nil), cfg.Sessions.StateSalt...)
	}
	return out
}

func normalizeConfig(cfg *Config) {
	def := defaultConfig()

	if cfg.OCRA.Suite == "" {
		cfg.OCRA.Suite = def.OCRA.Suite
	}
	if cfg.OCRA.ProtocolVersion == 0 {
		cfg.OCRA.ProtocolVersion = def.OCRA.ProtocolVersion
	}
	if cfg.Identity.AuthProtocol == "" {
		cfg.Identity.AuthProtocol = def.Identity.AuthProtocol
	}
	if cfg.Identity.EnrollProtocol == "" {
		cfg.Identity.EnrollProtocol = def.Identity.EnrollProtocol
	}
	if cfg.Sessions.ChallengeTTL <= 0 {
		cfg.Sessions.ChallengeTTL = def.Sessions.ChallengeTTL
	}
	if cfg.Sessions.EnrollmentTTL <= 0 {
		cfg.Sessions.EnrollmentTTL = def.Sessions.EnrollmentTTL
	}
	if cfg.Sessions.AuthenticatedTTL <= 0 {
		cfg.Sessions.AuthenticatedTTL = def.Sessions.AuthenticatedTTL
	}
	if len(cfg.Sessions.StateSalt) == 0 {
		cfg.Sessions.StateSalt = def.Sessions.StateSalt
	}
	if cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = def.Audit.BufferSize
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.OCRA.ProtocolVersion != ProtocolVersion {
		return fmt.Errorf("%w: %w: version %d", ErrConfigInvalid, ErrUnsupportedProtocolVersion, c.OCRA.ProtocolVersion)
	}
	if _, err := ocra.ParseSuite(c.OCRA.Suite); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if c.Identity.Identifier == "" {
		return fmt.Errorf("%w: identity identifier required", ErrConfigInvalid)
	}
	if c.Identity.DisplayName == "" {
		return fmt.Errorf("%w: identity display name required", ErrConfigInvalid)
	}
	if err := validateProtocolScheme(c.Identity.AuthProtocol); err != nil {
		return fmt.Errorf("%w: auth protocol: %v", ErrConfigInvalid, err)
	}
	if err := validateProtocolScheme(c.Identity.EnrollProtocol); err != nil {
		return fmt.Errorf("%w: enroll protocol: %v", ErrConfigInvalid, err)
	}
	if c.Sessions.ChallengeTTL <= 0 || c.Sessions.EnrollmentTTL <= 0 || c.Sessions.AuthenticatedTTL <= 0 {
		return fmt.Errorf("%w: session lifetimes must be positive", ErrConfigInvalid)
	}
	if len(c.Sessions.StateSalt) == 0 {
		return fmt.Errorf("%w: state salt required", ErrConfigInvalid)
	}
	return nil
}

func validateProtocolScheme(scheme string) error {
	if scheme == "" {
		return fmt.Errorf("scheme required")
	}
	if strings.ContainsAny(scheme, ":/ ") {
		return fmt.Errorf("scheme %q must not contain separators", scheme)
	}
	return nil
}
