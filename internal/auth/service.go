package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/iliyamo/movie-wishlist/internal/model"
	"github.com/iliyamo/movie-wishlist/internal/repository"
	"github.com/iliyamo/movie-wishlist/internal/utils"
)

// UserStore is the slice of user persistence the auth service needs. The
// concrete implementation is repository.UserRepo; tests substitute an
// in-memory fake.
type UserStore interface {
	// GetByID loads an account by primary key.
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// GetByIdentifier loads an account whose email or username exactly
	// matches the identifier.
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	// SetRefreshFingerprint unconditionally overwrites the stored refresh
	// fingerprint (login path).
	SetRefreshFingerprint(ctx context.Context, id uint64, fingerprint string) error
	// SwapRefreshFingerprint replaces the stored fingerprint only if it still
	// equals expected, returning repository.ErrFingerprintConflict otherwise.
	// The compare and the write must be a single atomic step.
	SwapRefreshFingerprint(ctx context.Context, id uint64, expected, next string) error
}

// Service orchestrates login and refresh rotation on top of a TokenIssuer and
// a UserStore. It owns the security-critical state machine; transport-level
// concerns (request parsing, HTTP statuses, event publishing) stay in the
// handler layer.
type Service struct {
	tokens *TokenIssuer
	users  UserStore
}

func NewService(tokens *TokenIssuer, users UserStore) *Service {
	return &Service{tokens: tokens, users: users}
}

// dummyHash is a bcrypt digest of an unguessable value. When no account
// matches the identifier we still run one bcrypt comparison against it so the
// response time does not reveal whether the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Login verifies identifier+password and, on success, issues a fresh token
// pair and overwrites the account's refresh fingerprint. The identifier is
// matched case-sensitively against either email or username.
//
// No-such-account and wrong-password both return ErrInvalidCredentials. The
// ban flag is only consulted after the password matched, so a banned account
// is never revealed to a caller holding wrong credentials.
func (s *Service) Login(ctx context.Context, identifier, password string) (model.User, Pair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return model.User{}, Pair{}, ErrMalformedRequest
	}

	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(dummyHash, password) // burn the same time as a real compare
			return model.User{}, Pair{}, ErrInvalidCredentials
		}
		return model.User{}, Pair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, Pair{}, ErrInvalidCredentials
	}
	if u.IsBanned {
		return model.User{}, Pair{}, ErrAccountBanned
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Username)
	if err != nil {
		return model.User{}, Pair{}, err
	}
	if err := s.users.SetRefreshFingerprint(ctx, u.ID, Fingerprint(pair.Refresh)); err != nil {
		return model.User{}, Pair{}, err
	}
	return u, pair, nil
}

// Rotate exchanges a valid refresh token for a brand-new pair and atomically
// replaces the stored fingerprint, making the presented token permanently
// unusable. The checks run in a fixed order:
//
//	structural -> signature/expiry -> account -> fingerprint -> ban -> swap
//
// A fingerprint mismatch means the token was already rotated out or forged;
// it is rejected with ErrReuseDetected and nothing is mutated, so the
// legitimate current session stays valid. The final swap is conditional on
// the old fingerprint, which serializes concurrent rotations for the same
// account: exactly one wins, the rest see ErrReuseDetected.
func (s *Service) Rotate(ctx context.Context, rawRefresh string) (model.User, Pair, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return model.User{}, Pair{}, ErrMalformedRequest
	}

	claims, err := s.tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		return model.User{}, Pair{}, err // ErrTokenExpired or ErrTokenInvalid
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, Pair{}, ErrAccountNotFound
		}
		return model.User{}, Pair{}, err
	}

	presented := Fingerprint(rawRefresh)
	if u.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*u.RefreshTokenHash), []byte(presented)) != 1 {
		return model.User{}, Pair{}, &ReuseError{UserID: u.ID}
	}

	// Re-checked on every rotation: a refresh token can outlive a ban.
	if u.IsBanned {
		return model.User{}, Pair{}, ErrAccountBanned
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Username)
	if err != nil {
		return model.User{}, Pair{}, err
	}
	if err := s.users.SwapRefreshFingerprint(ctx, u.ID, presented, Fingerprint(pair.Refresh)); err != nil {
		if errors.Is(err, repository.ErrFingerprintConflict) {
			// A concurrent rotation won the race between our read and write.
			return model.User{}, Pair{}, &ReuseError{UserID: u.ID}
		}
		return model.User{}, Pair{}, err
	}
	return u, pair, nil
}

// VerifyAccess exposes the issuer's access verification half to the
// middleware layer.
func (s *Service) VerifyAccess(raw string) (Claims, error) {
	return s.tokens.VerifyAccess(raw)
}
