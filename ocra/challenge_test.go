package ocra

import (
	"errors"
	"strings"
	"testing"
)

func TestQuestionHexPerFormat(t *testing.T) {
	cases := []struct {
		suite    string
		question string
		want     string
	}{
		{"OCRA-1:HOTP-SHA1-6:QN08", "35274808", "21a4038"},
		{"OCRA-1:HOTP-SHA1-6:QN08", "00000000", "0"},
		{"OCRA-1:HOTP-SHA256-8:QA08", "SIGnTURE", "5349476e54555245"},
		{"OCRA-1:HOTP-SHA1-6:QH10-S", "a1b2c3d4e5", "a1b2c3d4e5"},
	}
	for _, tc := range cases {
		s, err := ParseSuite(tc.suite)
		if err != nil {
			t.Fatalf("ParseSuite(%q) failed: %v", tc.suite, err)
		}
		got, err := s.QuestionHex(tc.question)
		if err != nil {
			t.Fatalf("QuestionHex(%q) under %s failed: %v", tc.question, tc.suite, err)
		}
		if got != tc.want {
			t.Fatalf("QuestionHex(%q) under %s = %q, want %q", tc.question, tc.suite, got, tc.want)
		}
	}
}

func TestQuestionHexRejectsMalformedQuestions(t *testing.T) {
	cases := []struct {
		suite    string
		question string
	}{
		{"OCRA-1:HOTP-SHA1-6:QN08", "12ab5678"},
		{"OCRA-1:HOTP-SHA1-6:QN08", "-1234567"},
		{"OCRA-1:HOTP-SHA1-6:QH10-S", "not-hex!!!"},
	}
	for _, tc := range cases {
		s, err := ParseSuite(tc.suite)
		if err != nil {
			t.Fatalf("ParseSuite(%q) failed: %v", tc.suite, err)
		}
		if _, err := s.QuestionHex(tc.question); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("QuestionHex(%q) under %s: error %v is not ErrInvalidInput", tc.question, tc.suite, err)
		}
	}
}

func TestGenerateChallengeHexFormat(t *testing.T) {
	s, err := ParseSuite("OCRA-1:HOTP-SHA1-6:QH10-S")
	if err != nil {
		t.Fatalf("ParseSuite failed: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		q, err := GenerateChallenge(s)
		if err != nil {
			t.Fatalf("GenerateChallenge failed: %v", err)
		}
		if len(q) != 10 {
			t.Fatalf("expected a 10 hex digit challenge, got %q", q)
		}
		if !isHex(q) {
			t.Fatalf("challenge %q is not hex", q)
		}
		seen[q] = true
	}
	if len(seen) < 60 {
		t.Fatalf("challenges are not random enough: %d distinct of 64", len(seen))
	}
}

func TestGenerateChallengeNumericFormat(t *testing.T) {
	s, err := ParseSuite("OCRA-1:HOTP-SHA1-6:QN08")
	if err != nil {
		t.Fatalf("ParseSuite failed: %v", err)
	}

	for i := 0; i < 32; i++ {
		q, err := GenerateChallenge(s)
		if err != nil {
			t.Fatalf("GenerateChallenge failed: %v", err)
		}
		if len(q) != 8 {
			t.Fatalf("expected 8 digits, got %q", q)
		}
		if strings.Trim(q, "0123456789") != "" {
			t.Fatalf("challenge %q contains non-digits", q)
		}
	}
}

func TestGenerateChallengeAlphanumericFormat(t *testing.T) {
	s, err := ParseSuite("OCRA-1:HOTP-SHA256-8:QA08")
	if err != nil {
		t.Fatalf("ParseSuite failed: %v", err)
	}

	for i := 0; i < 32; i++ {
		q, err := GenerateChallenge(s)
		if err != nil {
			t.Fatalf("GenerateChallenge failed: %v", err)
		}
		if len(q) != 8 {
			t.Fatalf("expected 8 characters, got %q", q)
		}
		for _, c := range q {
			if !strings.ContainsRune(alphanumerics, c) {
				t.Fatalf("challenge %q contains %q outside the QA alphabet", q, c)
			}
		}
	}
}
