package ocra

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"
)

// ErrInvalidSuite is returned when an OCRA suite string does not follow the
// RFC 6287 <Algorithm>:<CryptoFunction>:<DataInput> grammar.
var ErrInvalidSuite = errors.New("invalid ocra suite")

// Hash identifies one of the HMAC hash functions an OCRA suite may select.
type Hash int

const (
	// SHA1 selects HMAC-SHA1.
	SHA1 Hash = iota + 1
	// SHA256 selects HMAC-SHA256.
	SHA256
	// SHA512 selects HMAC-SHA512.
	SHA512
)

// Size returns the digest size in bytes.
func (h Hash) Size() int {
	switch h {
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return sha1.Size
	}
}

// New returns the hash constructor for use with crypto/hmac.
func (h Hash) New() hash.Hash {
	switch h {
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	default:
		return sha1.New()
	}
}

func (h Hash) String() string {
	switch h {
	case SHA1:
		return "SHA1"
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	default:
		return "SHA?"
	}
}

// QuestionFormat is the challenge question alphabet selected by the suite.
type QuestionFormat byte

const (
	// QuestionAlphanumeric is the QA format (characters [A-Za-z0-9]).
	QuestionAlphanumeric QuestionFormat = 'A'
	// QuestionNumeric is the QN format (decimal digits).
	QuestionNumeric QuestionFormat = 'N'
	// QuestionHexadecimal is the QH format (hex digits).
	QuestionHexadecimal QuestionFormat = 'H'
)

// TimeUnit is the timestamp granularity of a T token.
type TimeUnit byte

const (
	// Seconds is the S time step unit.
	Seconds TimeUnit = 'S'
	// Minutes is the M time step unit.
	Minutes TimeUnit = 'M'
	// Hours is the H time step unit.
	Hours TimeUnit = 'H'
)

// Suite is the parsed form of an OCRA suite string such as
// "OCRA-1:HOTP-SHA1-6:QH10-S". It records which optional data inputs are
// present and the fixed encoded length of each.
//
// Suite instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Suite struct {
	Raw    string
	Hash   Hash
	Digits int // 0 means no truncation: the full hex digest is the response

	Counter bool

	QuestionFormat QuestionFormat
	QuestionLength int

	PasswordHash Hash // zero when the suite has no P token

	Session       bool
	SessionLength int // bytes

	Timestamp bool
	TimeStep  int
	TimeUnit  TimeUnit
}

func suiteErr(suite, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidSuite, suite, fmt.Sprintf(format, args...))
}

// ParseSuite parses an RFC 6287 suite descriptor. Parsing is deterministic
// and total: any string not matching the grammar fails with a descriptive
// error before any cryptographic operation can run.
func ParseSuite(suite string) (Suite, error) {
	s := Suite{Raw: suite}

	parts := strings.Split(suite, ":")
	if len(parts) != 3 {
		return Suite{}, suiteErr(suite, "expected 3 colon-separated components, found %d", len(parts))
	}
	if parts[0] != "OCRA-1" {
		return Suite{}, suiteErr(suite, "unsupported algorithm %q, only OCRA-1 is defined", parts[0])
	}

	if err := s.parseCryptoFunction(parts[1]); err != nil {
		return Suite{}, err
	}
	if err := s.parseDataInput(parts[2]); err != nil {
		return Suite{}, err
	}
	return s, nil
}

func (s *Suite) parseCryptoFunction(cf string) error {
	fields := strings.Split(cf, "-")
	if len(fields) != 3 || fields[0] != "HOTP" {
		return suiteErr(s.Raw, "crypto function %q must match HOTP-SHA{1,256,512}-{0|4..10}", cf)
	}

	switch fields[1] {
	case "SHA1":
		s.Hash = SHA1
	case "SHA256":
		s.Hash = SHA256
	case "SHA512":
		s.Hash = SHA512
	default:
		return suiteErr(s.Raw, "unsupported hash function %q", fields[1])
	}

	digits, err := strconv.Atoi(fields[2])
	if err != nil {
		return suiteErr(s.Raw, "truncation %q is not a number", fields[2])
	}
	if digits != 0 && (digits < 4 || digits > 10) {
		return suiteErr(s.Raw, "truncation must be 0 or 4..10, found %d", digits)
	}
	s.Digits = digits
	return nil
}

// parseDataInput consumes the [C]-QFxx[-PH][-Snnn][-TG] token sequence.
// Token order is fixed by the RFC; the question token is mandatory.
func (s *Suite) parseDataInput(di string) error {
	tokens := strings.Split(di, "-")
	i := 0

	next := func() string {
		if i < len(tokens) {
			return tokens[i]
		}
		return ""
	}

	if next() == "C" {
		s.Counter = true
		i++
	}

	if err := s.parseQuestion(next()); err != nil {
		return err
	}
	i++

	if tok := next(); strings.HasPrefix(tok, "P") {
		switch tok {
		case "PSHA1":
			s.PasswordHash = SHA1
		case "PSHA256":
			s.PasswordHash = SHA256
		case "PSHA512":
			s.PasswordHash = SHA512
		default:
			return suiteErr(s.Raw, "unsupported password hash token %q", tok)
		}
		i++
	}

	if tok := next(); strings.HasPrefix(tok, "S") {
		switch tok {
		case "S", "S064":
			s.SessionLength = 64
		case "S128":
			s.SessionLength = 128
		case "S256":
			s.SessionLength = 256
		case "S512":
			s.SessionLength = 512
		default:
			return suiteErr(s.Raw, "session token %q must be S, S064, S128, S256 or S512", tok)
		}
		s.Session = true
		i++
	}

	if tok := next(); strings.HasPrefix(tok, "T") {
		if err := s.parseTimestamp(tok); err != nil {
			return err
		}
		i++
	}

	if i != len(tokens) {
		return suiteErr(s.Raw, "unexpected data input token %q", tokens[i])
	}
	return nil
}

func (s *Suite) parseQuestion(tok string) error {
	if len(tok) != 4 || tok[0] != 'Q' {
		return suiteErr(s.Raw, "question token %q must match Q[ANH]nn", tok)
	}
	switch QuestionFormat(tok[1]) {
	case QuestionAlphanumeric, QuestionNumeric, QuestionHexadecimal:
		s.QuestionFormat = QuestionFormat(tok[1])
	default:
		return suiteErr(s.Raw, "question format %q must be A, N or H", tok[1:2])
	}
	n, err := strconv.Atoi(tok[2:])
	if err != nil || n < 4 || n > 64 {
		return suiteErr(s.Raw, "question length %q must be 04..64", tok[2:])
	}
	s.QuestionLength = n
	return nil
}

func (s *Suite) parseTimestamp(tok string) error {
	body := tok[1:]
	if len(body) < 2 {
		return suiteErr(s.Raw, "timestamp token %q must match T[1-59][SMH]", tok)
	}
	switch TimeUnit(body[len(body)-1]) {
	case Seconds, Minutes, Hours:
		s.TimeUnit = TimeUnit(body[len(body)-1])
	default:
		return suiteErr(s.Raw, "timestamp unit %q must be S, M or H", body[len(body)-1:])
	}
	step, err := strconv.Atoi(body[:len(body)-1])
	if err != nil || step < 1 || step > 59 {
		return suiteErr(s.Raw, "timestamp step %q must be 1..59", body[:len(body)-1])
	}
	s.TimeStep = step
	s.Timestamp = true
	return nil
}

func (s Suite) String() string {
	return s.Raw
}
