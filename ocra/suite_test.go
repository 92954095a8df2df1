package ocra

import (
	"errors"
	"testing"
)

func TestParseSuiteAccepts(t *testing.T) {
	cases := []struct {
		raw  string
		want Suite
	}{
		{
			raw: "OCRA-1:HOTP-SHA1-6:QH10-S",
			want: Suite{
				Raw: "OCRA-1:HOTP-SHA1-6:QH10-S", Hash: SHA1, Digits: 6,
				QuestionFormat: QuestionHexadecimal, QuestionLength: 10,
				Session: true, SessionLength: 64,
			},
		},
		{
			raw: "OCRA-1:HOTP-SHA1-6:QN08",
			want: Suite{
				Raw: "OCRA-1:HOTP-SHA1-6:QN08", Hash: SHA1, Digits: 6,
				QuestionFormat: QuestionNumeric, QuestionLength: 8,
			},
		},
		{
			raw: "OCRA-1:HOTP-SHA256-8:C-QN08-PSHA1",
			want: Suite{
				Raw: "OCRA-1:HOTP-SHA256-8:C-QN08-PSHA1", Hash: SHA256, Digits: 8,
				Counter: true, QuestionFormat: QuestionNumeric, QuestionLength: 8,
				PasswordHash: SHA1,
			},
		},
		{
			raw: "OCRA-1:HOTP-SHA512-8:QA10-T1M",
			want: Suite{
				Raw: "OCRA-1:HOTP-SHA512-8:QA10-T1M", Hash: SHA512, Digits: 8,
				QuestionFormat: QuestionAlphanumeric, QuestionLength: 10,
				Timestamp: true, TimeStep: 1, TimeUnit: Minutes,
			},
		},
		{
			raw: "OCRA-1:HOTP-SHA256-0:C-QH40-PSHA512-S128-T59S",
			want: Suite{
				Raw: "OCRA-1:HOTP-SHA256-0:C-QH40-PSHA512-S128-T59S", Hash: SHA256, Digits: 0,
				Counter: true, QuestionFormat: QuestionHexadecimal, QuestionLength: 40,
				PasswordHash: SHA512, Session: true, SessionLength: 128,
				Timestamp: true, TimeStep: 59, TimeUnit: Seconds,
			},
		},
	}

	for _, tc := range cases {
		got, err := ParseSuite(tc.raw)
		if err != nil {
			t.Fatalf("ParseSuite(%s) failed: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSuite(%s):\n got %+v\nwant %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseSuiteRejects(t *testing.T) {
	cases := []string{
		"",
		":::",
		"OCRA-2:HOTP-SHA1-6:QN08",
		"TOTP-1:HOTP-SHA1-6:QN08",
		"OCRA-1:HOTP-SHA1-6",
		"OCRA-1:HOTP-MD5-6:QN08",
		"OCRA-1:HOTP-SHA1-3:QN08",
		"OCRA-1:HOTP-SHA1-11:QN08",
		"OCRA-1:HOTP-SHA1-6:C",
		"OCRA-1:HOTP-SHA1-6:QX08",
		"OCRA-1:HOTP-SHA1-6:QN03",
		"OCRA-1:HOTP-SHA1-6:QN65",
		"OCRA-1:HOTP-SHA1-6:QN08-PMD5",
		"OCRA-1:HOTP-SHA1-6:QN08-S100",
		"OCRA-1:HOTP-SHA1-6:QN08-T60M",
		"OCRA-1:HOTP-SHA1-6:QN08-T1X",
		"OCRA-1:HOTP-SHA1-6:T1M-QN08",
		"OCRA-1:HOTP-SHA1-6:C-C-QN08",
		"OCRA-1:HOTP-SHA1-6:QN08-QN08",
	}

	for _, raw := range cases {
		if _, err := ParseSuite(raw); err == nil {
			t.Fatalf("ParseSuite(%q): expected an error", raw)
		} else if !errors.Is(err, ErrInvalidSuite) {
			t.Fatalf("ParseSuite(%q): error %v is not ErrInvalidSuite", raw, err)
		}
	}
}
