// Package secrets provides reversible encryption for stored OCRA user
// secrets. Stored values are tagged with the cipher that produced them
// ("<type>:<hex>") so deployments can migrate ciphers without re-enrolling
// every user.
package secrets

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCipher is returned when a stored value names a cipher the
	// registry has no decrypter for.
	ErrUnknownCipher = errors.New("unknown secret cipher")
	// ErrInvalidCiphertext is returned when a stored value cannot be decoded
	// or authenticated.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Cipher encrypts and decrypts raw secret bytes. Implementations must be
// safe for concurrent use.
type Cipher interface {
	// Type is the tag written in front of stored values. Must be non-empty
	// and contain no ':'.
	Type() string
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Registry holds one active cipher for encryption and any number of
// registered ciphers for decryption.
//
// Registry instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Registry struct {
	active  Cipher
	ciphers map[string]Cipher
}

// NewRegistry builds a registry that encrypts with active. Plain is always
// registered for decryption so legacy values keep working.
func NewRegistry(active Cipher) *Registry {
	if active == nil {
		active = Plain{}
	}
	r := &Registry{
		active:  active,
		ciphers: map[string]Cipher{},
	}
	r.Register(Plain{})
	r.Register(active)
	return r
}

// Register adds a cipher for decryption of values carrying its tag.
func (r *Registry) Register(c Cipher) {
	if c == nil || c.Type() == "" {
		return
	}
	r.ciphers[c.Type()] = c
}

// Encrypt encrypts plaintext with the active cipher and returns the tagged
// storage form.
func (r *Registry) Encrypt(plaintext []byte) (string, error) {
	data, err := r.active.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return r.active.Type() + ":" + hex.EncodeToString(data), nil
}

// Decrypt reverses Encrypt for any registered cipher. A value without a tag
// predates tagging and is treated as a plain secret.
func (r *Registry) Decrypt(stored string) ([]byte, error) {
	tag, payload, found := strings.Cut(stored, ":")
	if !found {
		return []byte(stored), nil
	}

	c, ok := r.ciphers[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, tag)
	}
	data, err := hex.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return c.Decrypt(data)
}
