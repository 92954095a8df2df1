package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// XChaCha20 encrypts secrets with XChaCha20-Poly1305. The 24-byte nonce is
// generated per value and prepended to the ciphertext.
type XChaCha20 struct {
	aead cipher.AEAD
}

// NewXChaCha20 describes the newxchacha20 operation and its observable behavior.
//
// NewXChaCha20 may return an error when input validation, dependency calls, or security checks fail.
// NewXChaCha20 does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewXChaCha20(key []byte) (*XChaCha20, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}
	return &XChaCha20{aead: aead}, nil
}

// Type describes the type operation and its observable behavior.
func (*XChaCha20) Type() string { return "xchacha20" }

// Encrypt describes the encrypt operation and its observable behavior.
func (x *XChaCha20) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, x.aead.NonceSize(), x.aead.NonceSize()+len(plaintext)+x.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secrets: generate nonce: %w", err)
	}
	return x.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt describes the decrypt operation and its observable behavior.
func (x *XChaCha20) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < x.aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, sealed := ciphertext[:x.aead.NonceSize()], ciphertext[x.aead.NonceSize():]
	plain, err := x.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return plain, nil
}
