package ocra

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"
)

// Standard RFC 6287 test keys: "12345678901234567890" repeated to 20, 32 and
// 64 bytes, plus the SHA1 hash of "1234" used as the PSHA1 input.
const (
	rfcKey20 = "3132333435363738393031323334353637383930"
	rfcKey32 = "3132333435363738393031323334353637383930" +
		"313233343536373839303132"
	rfcKey64 = "3132333435363738393031323334353637383930" +
		"3132333435363738393031323334353637383930" +
		"3132333435363738393031323334353637383930" +
		"31323334"
	rfcPinSHA1 = "7110eda4d09e062aa5e4a390b0a572ac0d2c0220"
)

// numericQuestionHex converts a decimal challenge question to the hex string
// form the codec consumes, the same way a client does for QN suites.
func numericQuestionHex(t *testing.T, question string) string {
	t.Helper()
	n, ok := new(big.Int).SetString(question, 10)
	if !ok {
		t.Fatalf("bad numeric question %q", question)
	}
	return n.Text(16)
}

func asciiQuestionHex(question string) string {
	return hex.EncodeToString([]byte(question))
}

func TestComputeResponseRFCOneWaySHA1(t *testing.T) {
	cases := []struct {
		question string
		response string
	}{
		{"00000000", "237653"},
		{"11111111", "243178"},
		{"22222222", "653583"},
		{"33333333", "740991"},
		{"44444444", "608993"},
		{"55555555", "388898"},
		{"66666666", "816933"},
		{"77777777", "224598"},
		{"88888888", "750600"},
		{"99999999", "294470"},
	}

	for _, tc := range cases {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA1-6:QN08", rfcKey20, "", numericQuestionHex(t, tc.question), "", "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", tc.question, err)
		}
		if got != tc.response {
			t.Fatalf("question %s: got %s, want %s", tc.question, got, tc.response)
		}
	}
}

func TestComputeResponseRFCCounterSHA256(t *testing.T) {
	responses := []string{
		"65347737", "86775851", "78192410", "71565254", "10104329",
		"65983500", "70069104", "91771096", "75011558", "08522129",
	}
	question := numericQuestionHex(t, "12345678")

	for c, want := range responses {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA256-8:C-QN08-PSHA1", rfcKey32, strconv.FormatInt(int64(c), 16), question, rfcPinSHA1, "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(c=%d) failed: %v", c, err)
		}
		if got != want {
			t.Fatalf("counter %d: got %s, want %s", c, got, want)
		}
	}
}

func TestComputeResponseRFCPinSHA256(t *testing.T) {
	cases := []struct {
		question string
		response string
	}{
		{"00000000", "83238735"},
		{"11111111", "01501458"},
		{"22222222", "17957585"},
		{"33333333", "86776967"},
		{"44444444", "86807031"},
	}

	for _, tc := range cases {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA256-8:QN08-PSHA1", rfcKey32, "", numericQuestionHex(t, tc.question), rfcPinSHA1, "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", tc.question, err)
		}
		if got != tc.response {
			t.Fatalf("question %s: got %s, want %s", tc.question, got, tc.response)
		}
	}
}

func TestComputeResponseRFCCounterSHA512(t *testing.T) {
	responses := []string{
		"07016083", "63947962", "70123924", "25341727", "33203315",
		"34205738", "44343969", "51946085", "20403879", "31409299",
	}

	for c, want := range responses {
		q := ""
		for i := 0; i < 8; i++ {
			q += strconv.Itoa(c)
		}
		got, err := ComputeResponse("OCRA-1:HOTP-SHA512-8:C-QN08", rfcKey64, strconv.FormatInt(int64(c), 16), numericQuestionHex(t, q), "", "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(c=%d) failed: %v", c, err)
		}
		if got != want {
			t.Fatalf("counter %d: got %s, want %s", c, got, want)
		}
	}
}

func TestComputeResponseRFCTimedSHA512(t *testing.T) {
	// T = 0x132d0b6 is the RFC's example timestamp: 2008-03-25 12:06:30 UTC
	// in one-minute steps.
	cases := []struct {
		question string
		response string
	}{
		{"00000000", "95209754"},
		{"11111111", "55907591"},
		{"22222222", "22048402"},
		{"33333333", "24218844"},
		{"44444444", "36209546"},
	}

	for _, tc := range cases {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA512-8:QN08-T1M", rfcKey64, "", numericQuestionHex(t, tc.question), "", "", "132d0b6")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", tc.question, err)
		}
		if got != tc.response {
			t.Fatalf("question %s: got %s, want %s", tc.question, got, tc.response)
		}
	}
}

func TestComputeResponseRFCMutualSHA256(t *testing.T) {
	cases := map[string]string{
		"CLI22220SRV11110": "28247970",
		"CLI22221SRV11111": "01984843",
		"CLI22222SRV11112": "65387857",
		"CLI22223SRV11113": "03351211",
		"CLI22224SRV11114": "83412541",
		"SRV11110CLI22220": "15510767",
		"SRV11111CLI22221": "90175646",
		"SRV11112CLI22222": "33777207",
		"SRV11113CLI22223": "95285278",
		"SRV11114CLI22224": "28934924",
	}

	for question, want := range cases {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA256-8:QA08", rfcKey32, "", asciiQuestionHex(question), "", "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", question, err)
		}
		if got != want {
			t.Fatalf("question %s: got %s, want %s", question, got, want)
		}
	}
}

func TestComputeResponseRFCMutualSHA512(t *testing.T) {
	server := map[string]string{
		"CLI22220SRV11110": "79496648",
		"CLI22221SRV11111": "76831980",
		"CLI22222SRV11112": "12250499",
		"CLI22223SRV11113": "90856481",
		"CLI22224SRV11114": "12761449",
	}
	client := map[string]string{
		"SRV11110CLI22220": "18806276",
		"SRV11111CLI22221": "70020315",
		"SRV11112CLI22222": "01600026",
		"SRV11113CLI22223": "18951020",
		"SRV11114CLI22224": "32528969",
	}

	for question, want := range server {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA512-8:QA08", rfcKey64, "", asciiQuestionHex(question), "", "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", question, err)
		}
		if got != want {
			t.Fatalf("server question %s: got %s, want %s", question, got, want)
		}
	}
	for question, want := range client {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA512-8:QA08-PSHA1", rfcKey64, "", asciiQuestionHex(question), rfcPinSHA1, "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", question, err)
		}
		if got != want {
			t.Fatalf("client question %s: got %s, want %s", question, got, want)
		}
	}
}

func TestComputeResponseRFCSignature(t *testing.T) {
	plain := map[string]string{
		"SIG10000": "53095496",
		"SIG11000": "04110475",
		"SIG12000": "31331128",
		"SIG13000": "76028668",
		"SIG14000": "46554205",
	}
	timed := map[string]string{
		"SIG1000000": "77537423",
		"SIG1100000": "31970405",
		"SIG1200000": "10235557",
		"SIG1300000": "95213541",
		"SIG1400000": "65360607",
	}

	for question, want := range plain {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA256-8:QA08", rfcKey32, "", asciiQuestionHex(question), "", "", "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", question, err)
		}
		if got != want {
			t.Fatalf("signature %s: got %s, want %s", question, got, want)
		}
	}
	for question, want := range timed {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA512-8:QA10-T1M", rfcKey64, "", asciiQuestionHex(question), "", "", "132d0b6")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", question, err)
		}
		if got != want {
			t.Fatalf("timed signature %s: got %s, want %s", question, got, want)
		}
	}
}

// RFC 6287 publishes no vectors for S suites, so these were produced with an
// independent implementation validated against every Appendix C table above.
// The session is the 64-byte ASCII string "123456...1234", following the
// standard test key pattern, so no session padding is involved.
func TestComputeResponseSessionInfoSHA1(t *testing.T) {
	session := hex.EncodeToString([]byte(
		"1234567890123456789012345678901234567890123456789012345678901234"))

	cases := []struct {
		question string
		response string
	}{
		{"00000000", "22987196"},
		{"11111111", "18632151"},
		{"22222222", "03072594"},
		{"33333333", "55193079"},
		{"44444444", "69806681"},
		{"55555555", "69733792"},
		{"66666666", "83923143"},
		{"77777777", "34302897"},
		{"88888888", "21812093"},
		{"99999999", "33724359"},
	}

	for _, tc := range cases {
		got, err := ComputeResponse("OCRA-1:HOTP-SHA1-8:QN08-S064", rfcKey32, "", numericQuestionHex(t, tc.question), "", session, "")
		if err != nil {
			t.Fatalf("ComputeResponse(%s) failed: %v", tc.question, err)
		}
		if got != tc.response {
			t.Fatalf("question %s: got %s, want %s", tc.question, got, tc.response)
		}
	}
}

func TestComputeResponseNoTruncationReturnsHexDigest(t *testing.T) {
	got, err := ComputeResponse("OCRA-1:HOTP-SHA1-0:QN08", rfcKey20, "", numericQuestionHex(t, "00000000"), "", "", "")
	if err != nil {
		t.Fatalf("ComputeResponse failed: %v", err)
	}
	if len(got) != 40 {
		t.Fatalf("expected 40 hex digits for an untruncated SHA1 response, got %d (%s)", len(got), got)
	}
	if !isHex(got) {
		t.Fatalf("untruncated response is not hex: %s", got)
	}
}

func TestComputeResponseDeterministicWithSessionInfo(t *testing.T) {
	suite := "OCRA-1:HOTP-SHA1-6:QH10-S"
	first, err := ComputeResponse(suite, rfcKey20, "", "a1b2c3d4e5", "", "0123456789abcdef0123456789abcdef", "")
	if err != nil {
		t.Fatalf("ComputeResponse failed: %v", err)
	}
	second, err := ComputeResponse(suite, rfcKey20, "", "a1b2c3d4e5", "", "0123456789abcdef0123456789abcdef", "")
	if err != nil {
		t.Fatalf("ComputeResponse failed: %v", err)
	}
	if first != second {
		t.Fatalf("same inputs produced %s then %s", first, second)
	}
	if len(first) != 6 {
		t.Fatalf("expected 6 digits, got %q", first)
	}

	// A different session must change the response.
	other, err := ComputeResponse(suite, rfcKey20, "", "a1b2c3d4e5", "", "ffffffffffffffffffffffffffffffff", "")
	if err != nil {
		t.Fatalf("ComputeResponse failed: %v", err)
	}
	if other == first {
		t.Fatal("session information did not affect the response")
	}
}

func TestComputeResponseInputValidation(t *testing.T) {
	suite := "OCRA-1:HOTP-SHA1-6:QN08"
	q := numericQuestionHex(t, "00000000")

	cases := []struct {
		name     string
		key      string
		question string
	}{
		{"empty key", "", q},
		{"odd key hex", "a1b2c", q},
		{"non-hex key", "zz", q},
		{"non-hex question", rfcKey20, "not-hex!"},
	}

	for _, tc := range cases {
		if _, err := ComputeResponse(suite, tc.key, "", tc.question, "", "", ""); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}

	// Oversized fields are rejected rather than silently trimmed.
	if _, err := ComputeResponse("OCRA-1:HOTP-SHA1-6:C-QN08", rfcKey20, "00112233445566778899", q, "", "", ""); err == nil {
		t.Fatal("expected counter overflow error")
	}
	longQuestion := ""
	for i := 0; i < 257; i++ {
		longQuestion += "a"
	}
	if _, err := ComputeResponse(suite, rfcKey20, "", longQuestion, "", "", ""); err == nil {
		t.Fatal("expected question overflow error")
	}
}
