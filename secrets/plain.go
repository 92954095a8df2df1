package secrets

// Plain stores secrets without encryption. Suitable only when the secret
// store itself is encrypted at rest.
type Plain struct{}

// Type describes the type operation and its observable behavior.
func (Plain) Type() string { return "plain" }

// Encrypt describes the encrypt operation and its observable behavior.
func (Plain) Encrypt(plaintext []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

// Decrypt describes the decrypt operation and its observable behavior.
func (Plain) Decrypt(ciphertext []byte) ([]byte, error) {
	return append([]byte(nil), ciphertext...), nil
}
