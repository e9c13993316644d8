package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-wishlist/internal/model"
	"github.com/iliyamo/movie-wishlist/internal/repository"
)

// fakeUserStore is an in-memory UserStore whose SwapRefreshFingerprint is
// atomic under its mutex, mirroring the conditional UPDATE the real
// repository issues.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uint64]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[uint64]*model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return snapshot(u), nil
}

func (s *fakeUserStore) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == identifier || u.Username == identifier {
			return snapshot(u), nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) SetRefreshFingerprint(ctx context.Context, id uint64, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fp := fingerprint
	u.RefreshTokenHash = &fp
	return nil
}

func (s *fakeUserStore) SwapRefreshFingerprint(ctx context.Context, id uint64, expected, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrFingerprintConflict
	}
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != expected {
		return repository.ErrFingerprintConflict
	}
	// The MySQL driver reports rows changed, not rows matched: a swap that
	// writes the value already stored affects zero rows. Mirror that here so
	// a no-op swap fails the same way it would in production.
	if next == *u.RefreshTokenHash {
		return repository.ErrFingerprintConflict
	}
	fp := next
	u.RefreshTokenHash = &fp
	return nil
}

func snapshot(u *model.User) model.User {
	out := *u
	if u.RefreshTokenHash != nil {
		fp := *u.RefreshTokenHash
		out.RefreshTokenHash = &fp
	}
	return out
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func newTestService(t *testing.T, users ...*model.User) (*Service, *fakeUserStore, *TokenIssuer) {
	t.Helper()
	store := newFakeUserStore(users...)
	iss := newTestIssuer()
	return NewService(iss, store), store, iss
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 1, Email: "alice@example.com", Username: "alice", PasswordHash: mustHash(t, "S3cret!pw")}
	svc, store, _ := newTestService(t, u)

	got, pair, err := svc.Login(context.Background(), "alice", "S3cret!pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("user mismatch: %+v", got)
	}

	// An access token from the pair verifies back to the same subject.
	claims, err := svc.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "alice" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	// Login persisted the fingerprint of the raw refresh token, never the
	// token itself.
	stored, _ := store.GetByID(context.Background(), 1)
	if stored.RefreshTokenHash == nil {
		t.Fatalf("expected stored fingerprint after login")
	}
	if *stored.RefreshTokenHash != Fingerprint(pair.Refresh) {
		t.Fatalf("stored fingerprint does not match issued refresh token")
	}
	if *stored.RefreshTokenHash == pair.Refresh {
		t.Fatalf("raw refresh token must never be stored")
	}
}

func TestLogin_ByEmailAndUsername(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 1, Email: "bob@example.com", Username: "bob_1", PasswordHash: mustHash(t, "pw123456!A")}
	svc, _, _ := newTestService(t, u)

	for _, id := range []string{"bob@example.com", "bob_1"} {
		if _, _, err := svc.Login(context.Background(), id, "pw123456!A"); err != nil {
			t.Fatalf("Login(%q) error: %v", id, err)
		}
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	banned := &model.User{ID: 2, Email: "mallory@example.com", Username: "mallory", PasswordHash: mustHash(t, "pw"), IsBanned: true}
	u := &model.User{ID: 1, Email: "alice@example.com", Username: "alice", PasswordHash: mustHash(t, "right")}
	svc, _, _ := newTestService(t, u, banned)

	tests := []struct {
		name       string
		identifier string
		password   string
		want       error
	}{
		{"empty identifier", "", "x", ErrMalformedRequest},
		{"empty password", "alice", "", ErrMalformedRequest},
		{"unknown account", "nobody", "whatever", ErrInvalidCredentials},
		{"wrong password", "alice", "wrong", ErrInvalidCredentials},
		{"case-sensitive identifier", "Alice", "right", ErrInvalidCredentials},
		{"banned with right password", "mallory", "pw", ErrAccountBanned},
		{"banned with wrong password", "mallory", "nope", ErrInvalidCredentials},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.identifier, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestRotate_Success(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 5, Email: "a@b.c", Username: "ann", PasswordHash: mustHash(t, "pw")}
	svc, store, _ := newTestService(t, u)

	_, first, err := svc.Login(context.Background(), "ann", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	got, second, err := svc.Rotate(context.Background(), first.Refresh)
	if err != nil {
		t.Fatalf("Rotate error: %v", err)
	}
	if got.ID != 5 {
		t.Fatalf("user mismatch: %+v", got)
	}
	if second.Refresh == first.Refresh {
		t.Fatalf("rotation must mint a new refresh token")
	}

	stored, _ := store.GetByID(context.Background(), 5)
	if *stored.RefreshTokenHash != Fingerprint(second.Refresh) {
		t.Fatalf("stored fingerprint not swapped to the new token")
	}
}

// A client may rotate immediately after login, within the same clock second.
// The replacement token's fingerprint must still differ from the presented
// one, otherwise the swap changes zero rows and a legitimate first rotation
// would read as reuse.
func TestRotate_ImmediatelyAfterLogin(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 9, Email: "f@a.st", Username: "fern", PasswordHash: mustHash(t, "pw")}
	svc, store, iss := newTestService(t, u)

	frozen := time.Now().UTC()
	iss.now = func() time.Time { return frozen }

	_, first, err := svc.Login(context.Background(), "fern", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	_, second, err := svc.Rotate(context.Background(), first.Refresh)
	if err != nil {
		t.Fatalf("same-second rotation must succeed: %v", err)
	}
	_, third, err := svc.Rotate(context.Background(), second.Refresh)
	if err != nil {
		t.Fatalf("second same-second rotation must succeed: %v", err)
	}

	// The chain spent the earlier tokens for good.
	if _, _, err := svc.Rotate(context.Background(), first.Refresh); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("spent token must be rejected, got %v", err)
	}
	stored, _ := store.GetByID(context.Background(), 9)
	if *stored.RefreshTokenHash != Fingerprint(third.Refresh) {
		t.Fatalf("stored fingerprint must track the newest token")
	}
}

func TestRotate_ReplayDetected(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 6, Email: "x@y.z", Username: "zed", PasswordHash: mustHash(t, "pw")}
	svc, store, _ := newTestService(t, u)

	_, first, err := svc.Login(context.Background(), "zed", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	_, second, err := svc.Rotate(context.Background(), first.Refresh)
	if err != nil {
		t.Fatalf("first Rotate error: %v", err)
	}

	// Presenting the already-rotated token again is reuse.
	_, _, err = svc.Rotate(context.Background(), first.Refresh)
	if !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected on replay, got %v", err)
	}
	var reuse *ReuseError
	if !errors.As(err, &reuse) || reuse.UserID != 6 {
		t.Fatalf("reuse error must carry the account id, got %#v", err)
	}

	// Reuse detection rejects without mutating: the current session's
	// fingerprint is still in place and the current token still rotates.
	stored, _ := store.GetByID(context.Background(), 6)
	if *stored.RefreshTokenHash != Fingerprint(second.Refresh) {
		t.Fatalf("replay must not disturb the stored fingerprint")
	}
	if _, _, err := svc.Rotate(context.Background(), second.Refresh); err != nil {
		t.Fatalf("current token must stay usable after a replay attempt: %v", err)
	}
}

func TestRotate_Failures(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 7, Email: "q@w.e", Username: "quin", PasswordHash: mustHash(t, "pw")}
	svc, store, iss := newTestService(t, u)

	_, pair, err := svc.Login(context.Background(), "quin", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	t.Run("empty token", func(t *testing.T) {
		_, _, err := svc.Rotate(context.Background(), "  ")
		if !errors.Is(err, ErrMalformedRequest) {
			t.Fatalf("got %v want ErrMalformedRequest", err)
		}
	})

	t.Run("wrong signature is invalid, not reuse", func(t *testing.T) {
		other := NewTokenIssuer("other-a", "other-r", 15, 7)
		forged, _ := other.IssuePair(7, "quin")
		_, _, err := svc.Rotate(context.Background(), forged.Refresh)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("got %v want ErrTokenInvalid", err)
		}
	})

	t.Run("expired is expired, not reuse", func(t *testing.T) {
		saved := iss.now
		iss.now = func() time.Time { return time.Now().UTC().Add(-30 * 24 * time.Hour) }
		old, _ := iss.IssuePair(7, "quin")
		iss.now = saved
		// Even making it the stored fingerprint must not mask expiry.
		if err := store.SetRefreshFingerprint(context.Background(), 7, Fingerprint(old.Refresh)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		_, _, err := svc.Rotate(context.Background(), old.Refresh)
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("got %v want ErrTokenExpired", err)
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost, _ := iss.IssuePair(999, "ghost")
		_, _, err := svc.Rotate(context.Background(), ghost.Refresh)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("got %v want ErrAccountNotFound", err)
		}
	})

	t.Run("no stored fingerprint", func(t *testing.T) {
		fresh := &model.User{ID: 8, Email: "n@o.p", Username: "nils", PasswordHash: mustHash(t, "pw")}
		svc2, _, iss2 := newTestService(t, fresh)
		p, _ := iss2.IssuePair(8, "nils")
		_, _, err := svc2.Rotate(context.Background(), p.Refresh)
		if !errors.Is(err, ErrReuseDetected) {
			t.Fatalf("got %v want ErrReuseDetected", err)
		}
	})

	t.Run("banned account", func(t *testing.T) {
		// Restore the fingerprint the earlier subtest overwrote, then ban.
		if err := store.SetRefreshFingerprint(context.Background(), 7, Fingerprint(pair.Refresh)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		store.mu.Lock()
		store.users[7].IsBanned = true
		store.mu.Unlock()
		_, _, err := svc.Rotate(context.Background(), pair.Refresh)
		if !errors.Is(err, ErrAccountBanned) {
			t.Fatalf("got %v want ErrAccountBanned", err)
		}
	})
}

// Concurrent rotations of the same refresh token must be serialized by the
// conditional swap: exactly one goroutine wins, all others observe reuse.
func TestRotate_ConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	u := &model.User{ID: 11, Email: "r@a.ce", Username: "race", PasswordHash: mustHash(t, "pw")}
	svc, store, _ := newTestService(t, u)

	_, pair, err := svc.Login(context.Background(), "race", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	winners := make([]Pair, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, p, err := svc.Rotate(context.Background(), pair.Refresh)
			results[i] = err
			winners[i] = p
		}(i)
	}
	wg.Wait()

	won := 0
	var winner Pair
	for i, err := range results {
		switch {
		case err == nil:
			won++
			winner = winners[i]
		case errors.Is(err, ErrReuseDetected):
		default:
			t.Fatalf("unexpected error from concurrent rotation: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one rotation must win, got %d", won)
	}

	stored, _ := store.GetByID(context.Background(), 11)
	if *stored.RefreshTokenHash != Fingerprint(winner.Refresh) {
		t.Fatalf("stored fingerprint must belong to the winning rotation")
	}
}
