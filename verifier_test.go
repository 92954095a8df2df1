package ocrauth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ocrauth/ocrauth/ocra"
)

func TestNewOCRAVerifierRejectsUnsupportedVersion(t *testing.T) {
	for _, version := range []int{0, 1, 3} {
		if _, err := NewOCRAVerifier(defaultSuite, version); !errors.Is(err, ErrUnsupportedProtocolVersion) {
			t.Fatalf("version %d: %v", version, err)
		}
	}
	if _, err := NewOCRAVerifier("OCRA-1:HOTP-MD5-6:QH10", ProtocolVersion); err == nil {
		t.Fatal("expected error for invalid suite")
	}
}

func TestOCRAVerifierVerifyResponse(t *testing.T) {
	v, err := NewOCRAVerifier(defaultSuite, ProtocolVersion)
	if err != nil {
		t.Fatalf("NewOCRAVerifier: %v", err)
	}
	ctx := context.Background()

	challenge, err := v.GenerateChallenge()
	if err != nil {
		t.Fatalf("GenerateChallenge: %v", err)
	}
	if len(challenge) != 10 {
		t.Fatalf("challenge %q has length %d, want 10", challenge, len(challenge))
	}

	sessionInfo := "00112233445566778899aabbccddeeff"
	response, err := ocra.ComputeResponse(defaultSuite, testUserSecret, "", challenge, "", sessionInfo, "")
	if err != nil {
		t.Fatalf("ComputeResponse: %v", err)
	}

	ok, err := v.VerifyResponse(ctx, response, "alice", testUserSecret, challenge, sessionInfo)
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if !ok {
		t.Fatal("correct response rejected")
	}

	ok, err = v.VerifyResponse(ctx, "000000", "alice", testUserSecret, challenge, sessionInfo)
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if ok {
		t.Fatal("wrong response accepted")
	}

	// A response of the wrong length can never match.
	ok, err = v.VerifyResponse(ctx, response+"0", "alice", testUserSecret, challenge, sessionInfo)
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if ok {
		t.Fatal("overlong response accepted")
	}

	if _, err := v.VerifyResponse(ctx, "123456", "alice", "not-hex", challenge, sessionInfo); err == nil {
		t.Fatal("expected error for malformed secret")
	}
}

func TestOCRAVerifierNumericChallengeRoundTrip(t *testing.T) {
	v, err := NewOCRAVerifier("OCRA-1:HOTP-SHA1-6:QN08", ProtocolVersion)
	if err != nil {
		t.Fatalf("NewOCRAVerifier: %v", err)
	}
	ctx := context.Background()

	challenge, err := v.GenerateChallenge()
	if err != nil {
		t.Fatalf("GenerateChallenge: %v", err)
	}

	// A client treats a numeric challenge as a decimal number and hashes
	// over its big-endian hex encoding.
	n, ok := new(big.Int).SetString(challenge, 10)
	if !ok {
		t.Fatalf("challenge %q is not decimal", challenge)
	}
	response, err := ocra.ComputeResponse("OCRA-1:HOTP-SHA1-6:QN08", testUserSecret, "", n.Text(16), "", "", "")
	if err != nil {
		t.Fatalf("ComputeResponse: %v", err)
	}

	valid, err := v.VerifyResponse(ctx, response, "alice", testUserSecret, challenge, "")
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if !valid {
		t.Fatalf("correct response for challenge %q rejected", challenge)
	}
}

func TestOCRAVerifierAlphanumericChallengeRoundTrip(t *testing.T) {
	v, err := NewOCRAVerifier("OCRA-1:HOTP-SHA256-8:QA08", ProtocolVersion)
	if err != nil {
		t.Fatalf("NewOCRAVerifier: %v", err)
	}
	ctx := context.Background()

	challenge := "SIGnTURE"
	question := hex.EncodeToString([]byte(challenge))
	response, err := ocra.ComputeResponse("OCRA-1:HOTP-SHA256-8:QA08", testUserSecret, "", question, "", "", "")
	if err != nil {
		t.Fatalf("ComputeResponse: %v", err)
	}

	valid, err := v.VerifyResponse(ctx, response, "alice", testUserSecret, challenge, "")
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if !valid {
		t.Fatal("correct response rejected")
	}

	// A wrong response under an alphanumeric suite is a verdict, not an
	// encoding error.
	valid, err = v.VerifyResponse(ctx, "00000000", "alice", testUserSecret, challenge, "")
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if valid {
		t.Fatal("wrong response accepted")
	}
}

func TestRemoteVerifier(t *testing.T) {
	var gotPath, gotKey string
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-OathService-Key")

		switch r.URL.Path {
		case "/oath/challenge":
			_ = json.NewEncoder(w).Encode(map[string]string{"challenge": "a1b2c3d4e5"})
		case "/oath/validate":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			gotForm = map[string]string{
				"userId":             r.PostFormValue("userId"),
				"challenge":          r.PostFormValue("challenge"),
				"response":           r.PostFormValue("response"),
				"sessionInformation": r.PostFormValue("sessionInformation"),
			}
			_ = json.NewEncoder(w).Encode(map[string]bool{"valid": r.PostFormValue("response") == "123456"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	v, err := NewRemoteVerifier(srv.URL, "api-key", srv.Client())
	if err != nil {
		t.Fatalf("NewRemoteVerifier: %v", err)
	}

	challenge, err := v.GenerateChallenge()
	if err != nil {
		t.Fatalf("GenerateChallenge: %v", err)
	}
	if challenge != "a1b2c3d4e5" {
		t.Fatalf("challenge = %q", challenge)
	}
	if gotPath != "/oath/challenge" || gotKey != "api-key" {
		t.Fatalf("challenge request path %q key %q", gotPath, gotKey)
	}

	ok, err := v.VerifyResponse(context.Background(), "123456", "alice", "", challenge, "sess")
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if !ok {
		t.Fatal("valid response rejected")
	}
	if gotForm["userId"] != "alice" || gotForm["challenge"] != challenge || gotForm["sessionInformation"] != "sess" {
		t.Fatalf("unexpected form %v", gotForm)
	}

	ok, err = v.VerifyResponse(context.Background(), "654321", "alice", "", challenge, "sess")
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if ok {
		t.Fatal("invalid response accepted")
	}
}

func TestRemoteVerifierUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v, err := NewRemoteVerifier(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("NewRemoteVerifier: %v", err)
	}

	if _, err := v.VerifyResponse(context.Background(), "123456", "alice", "", "a1b2c3d4e5", ""); !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
	}
	if _, err := v.GenerateChallenge(); !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
	}
}

func TestEngineWithRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oath/challenge":
			_ = json.NewEncoder(w).Encode(map[string]string{"challenge": "0123456789"})
		case "/oath/validate":
			_ = json.NewEncoder(w).Encode(map[string]bool{"valid": r.PostFormValue("response") == "42"})
		}
	}))
	defer srv.Close()

	remote, err := NewRemoteVerifier(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("NewRemoteVerifier: %v", err)
	}
	e := newTestEngine(t, nil, func(b *Builder) {
		b.WithVerifier(remote)
	})
	ctx := context.Background()

	sessionKey, err := e.StartAuthenticationSession(ctx, "", "app-1", "")
	if err != nil {
		t.Fatalf("StartAuthenticationSession: %v", err)
	}

	result, err := e.Authenticate(ctx, "alice", "", sessionKey, "42")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result != AuthResultAuthenticated {
		t.Fatalf("result = %v, want AUTHENTICATED", result)
	}
}
