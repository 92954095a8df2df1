package ocra

import (
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when a data input is not valid hex or does not
// fit the fixed field width its suite prescribes. The wrapped message names
// the offending field.
var ErrInvalidInput = errors.New("invalid ocra input")

// questionHexDigits is the fixed encoded width of the question field:
// 128 bytes regardless of the suite's question length.
const questionHexDigits = 256

// counterHexDigits and timestampHexDigits are the widths of the 8-byte
// big-endian counter and timestamp fields.
const (
	counterHexDigits   = 16
	timestampHexDigits = 16
)

// ComputeResponse parses suite and computes the OCRA response for the given
// hex-encoded data inputs. Inputs for components absent from the suite are
// ignored; an empty string for a present component is padded to all zero
// bytes, matching the RFC reference implementation.
//
// The result is a decimal string of exactly the suite's truncation digit
// count, or the lowercase hex HMAC digest when the suite disables truncation.
func ComputeResponse(suite, key, counter, question, passwordHash, sessionInfo, timestamp string) (string, error) {
	s, err := ParseSuite(suite)
	if err != nil {
		return "", err
	}
	return s.Compute(key, counter, question, passwordHash, sessionInfo, timestamp)
}

// Compute is ComputeResponse for an already parsed suite.
func (s Suite) Compute(key, counter, question, passwordHash, sessionInfo, timestamp string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key must not be empty", ErrInvalidInput)
	}
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("%w: key is not valid hex: %v", ErrInvalidInput, err)
	}

	// DataInput = {OCRASuite | 00 | C | Q | P | S | T}, fixed field order,
	// each optional field present only when its suite token is.
	msg := make([]byte, 0, len(s.Raw)+1+8+128+64+512+8)
	msg = append(msg, s.Raw...)
	msg = append(msg, 0x00)

	if s.Counter {
		b, err := padLeft("counter", counter, counterHexDigits)
		if err != nil {
			return "", err
		}
		msg = append(msg, b...)
	}

	b, err := padRightQuestion(question)
	if err != nil {
		return "", err
	}
	msg = append(msg, b...)

	if s.PasswordHash != 0 {
		b, err := padLeft("password", passwordHash, 2*s.PasswordHash.Size())
		if err != nil {
			return "", err
		}
		msg = append(msg, b...)
	}

	if s.Session {
		b, err := padLeft("session", sessionInfo, 2*s.SessionLength)
		if err != nil {
			return "", err
		}
		msg = append(msg, b...)
	}

	if s.Timestamp {
		b, err := padLeft("timestamp", timestamp, timestampHexDigits)
		if err != nil {
			return "", err
		}
		msg = append(msg, b...)
	}

	return truncateDigest(s, keyBytes, msg)
}

func truncateDigest(s Suite, key, msg []byte) (string, error) {
	mac := hmac.New(s.Hash.New, key)
	_, _ = mac.Write(msg)
	sum := mac.Sum(nil)

	if s.Digits == 0 {
		return hex.EncodeToString(sum), nil
	}

	// RFC 4226 dynamic truncation: low nibble of the last byte selects a
	// 4-byte window, the top bit is masked off, and the rightmost Digits
	// characters of the zero-padded decimal rendering are the response.
	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		int(sum[offset+1])<<16 |
		int(sum[offset+2])<<8 |
		int(sum[offset+3])

	dec := strconv.Itoa(bin)
	if len(dec) < s.Digits {
		dec = strings.Repeat("0", s.Digits-len(dec)) + dec
	}
	return dec[len(dec)-s.Digits:], nil
}

// padLeft validates value as hex, left-pads it with '0' to width hex digits
// and decodes it. An empty value becomes all zero bytes.
func padLeft(field, value string, width int) ([]byte, error) {
	if !isHex(value) {
		return nil, fmt.Errorf("%w: %s is not valid hex", ErrInvalidInput, field)
	}
	if len(value) > width {
		return nil, fmt.Errorf("%w: %s hex exceeds %d digits", ErrInvalidInput, field, width)
	}
	b, err := hex.DecodeString(strings.Repeat("0", width-len(value)) + value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
	}
	return b, nil
}

// padRightQuestion right-pads the question hex with '0' to 256 digits before
// decoding. The asymmetry with every other field is a deliberate
// RFC-compliance detail: the reference implementation appends zeros to the
// question string, which is also what makes odd-length question hex legal.
func padRightQuestion(value string) ([]byte, error) {
	if !isHex(value) {
		return nil, fmt.Errorf("%w: question is not valid hex", ErrInvalidInput)
	}
	if len(value) > questionHexDigits {
		return nil, fmt.Errorf("%w: question hex exceeds %d digits", ErrInvalidInput, questionHexDigits)
	}
	b, err := hex.DecodeString(value + strings.Repeat("0", questionHexDigits-len(value)))
	if err != nil {
		return nil, fmt.Errorf("%w: question: %v", ErrInvalidInput, err)
	}
	return b, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
