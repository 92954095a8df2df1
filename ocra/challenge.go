package ocra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateChallenge produces a cryptographically random challenge question
// whose length and alphabet match the suite's Q token. It never truncates or
// pads around a short randomness read: a failing CSPRNG is a hard error.
func GenerateChallenge(s Suite) (string, error) {
	switch s.QuestionFormat {
	case QuestionHexadecimal:
		raw := make([]byte, (s.QuestionLength+1)/2)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("ocra: challenge generation: %w", err)
		}
		return hex.EncodeToString(raw)[:s.QuestionLength], nil
	case QuestionNumeric:
		return randomString("0123456789", s.QuestionLength)
	case QuestionAlphanumeric:
		return randomString(alphanumerics, s.QuestionLength)
	default:
		return "", fmt.Errorf("%w %q: no question format", ErrInvalidSuite, s.Raw)
	}
}

// QuestionHex encodes a challenge question in the suite's alphabet as the
// hex string fed into Compute. A QN question is read as a decimal number and
// rendered as big-endian hex, a QA question is the hex of its ASCII bytes,
// and a QH question is already hex.
func (s Suite) QuestionHex(question string) (string, error) {
	switch s.QuestionFormat {
	case QuestionNumeric:
		n, ok := new(big.Int).SetString(question, 10)
		if !ok || n.Sign() < 0 {
			return "", fmt.Errorf("%w: question is not a decimal number", ErrInvalidInput)
		}
		return n.Text(16), nil
	case QuestionAlphanumeric:
		return hex.EncodeToString([]byte(question)), nil
	case QuestionHexadecimal:
		if !isHex(question) {
			return "", fmt.Errorf("%w: question is not valid hex", ErrInvalidInput)
		}
		return question, nil
	default:
		return "", fmt.Errorf("%w %q: no question format", ErrInvalidSuite, s.Raw)
	}
}

// randomString draws n characters uniformly from charset using rejection
// sampling, so no character is biased by the modulo.
func randomString(charset string, n int) (string, error) {
	limit := 256 - 256%len(charset)
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("ocra: challenge generation: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
