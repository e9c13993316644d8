package auth

import (
	"testing"
	"time"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 15, 7)
}

func TestIssuePairAndVerify_Roundtrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	pair, err := iss.IssuePair(42, "carol")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected non-empty tokens")
	}
	if pair.Access == pair.Refresh {
		t.Fatalf("access and refresh tokens must differ")
	}

	ac, err := iss.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if ac.UserID != 42 || ac.Username != "carol" {
		t.Fatalf("access claims mismatch: %+v", ac)
	}

	rc, err := iss.VerifyRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if rc.UserID != 42 {
		t.Fatalf("refresh subject mismatch: got %d want 42", rc.UserID)
	}
	if rc.Username != "" {
		t.Fatalf("refresh token must not carry a username, got %q", rc.Username)
	}
}

func TestVerify_CrossSecretRejected(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	pair, err := iss.IssuePair(7, "dave")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	// An access token presented as a refresh token (and vice versa) must fail
	// signature verification because the secrets differ.
	if _, err := iss.VerifyRefresh(pair.Access); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for access-as-refresh, got %v", err)
	}
	if _, err := iss.VerifyAccess(pair.Refresh); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for refresh-as-access, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	iss.now = func() time.Time { return time.Now().UTC().Add(-48 * time.Hour) }
	pair, err := iss.IssuePair(9, "erin")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	// Access TTL is 15 minutes, so a token minted two days ago is expired.
	if _, err := iss.VerifyAccess(pair.Access); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	pair, err := iss.IssuePair(3, "frank")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	other := NewTokenIssuer("different-access", "different-refresh", 15, 7)
	if _, err := other.VerifyAccess(pair.Access); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	for _, raw := range []string{"", "garbage", "a.b", "not.a.jwt"} {
		if _, err := iss.VerifyAccess(raw); err != ErrTokenInvalid {
			t.Fatalf("VerifyAccess(%q): expected ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestIssuePair_UniqueAtSameInstant(t *testing.T) {
	t.Parallel()

	// Two pairs minted at the exact same clock reading must still carry
	// distinct refresh tokens; iat/exp alone cannot tell them apart.
	iss := newTestIssuer()
	frozen := time.Now().UTC()
	iss.now = func() time.Time { return frozen }

	a, err := iss.IssuePair(1, "ann")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	b, err := iss.IssuePair(1, "ann")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if a.Refresh == b.Refresh {
		t.Fatalf("refresh tokens minted at the same instant must differ")
	}
	if Fingerprint(a.Refresh) == Fingerprint(b.Refresh) {
		t.Fatalf("same-instant refresh tokens must have distinct fingerprints")
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fp := Fingerprint("some-token")
	if len(fp) != 64 {
		t.Fatalf("fingerprint length: got %d want 64", len(fp))
	}
	if fp != Fingerprint("some-token") {
		t.Fatalf("fingerprint must be deterministic")
	}
	if fp == Fingerprint("some-other-token") {
		t.Fatalf("distinct tokens must not share a fingerprint")
	}
}
