package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded identity carried by a verified token. Username is
// empty for refresh tokens, which carry the subject id and a unique jti.
type Claims struct {
	UserID   uint64
	Username string
}

// Pair bundles a freshly issued access/refresh token pair with expiries.
// The refresh token is returned raw exactly once; only its fingerprint is
// ever persisted.
type Pair struct {
	Access     string
	AccessExp  time.Time
	Refresh    string
	RefreshExp time.Time
}

// TokenIssuer mints and verifies HS256 JWTs. Access and refresh tokens are
// signed with distinct secrets so one kind can never be presented as the
// other. The issuer is pure: no storage, just secrets and a clock.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer builds an issuer from the configured secrets and TTLs.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssuePair mints a new access+refresh pair for the given user. It has no
// side effects; persisting the refresh fingerprint is the caller's job.
func (i *TokenIssuer) IssuePair(userID uint64, username string) (Pair, error) {
	now := i.now()
	accessExp := now.Add(i.accessTTL)
	refreshExp := now.Add(i.refreshTTL)

	access, err := sign(jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      accessExp.Unix(),
	}, i.accessSecret)
	if err != nil {
		return Pair{}, err
	}

	// The jti makes every refresh token unique even at the same issue
	// second, so a rotation always swaps in a different fingerprint.
	refresh, err := sign(jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": refreshExp.Unix(),
	}, i.refreshSecret)
	if err != nil {
		return Pair{}, err
	}

	return Pair{Access: access, AccessExp: accessExp, Refresh: refresh, RefreshExp: refreshExp}, nil
}

// VerifyAccess checks signature and expiry of an access token and returns its
// claims. Failures are ErrTokenExpired or ErrTokenInvalid.
func (i *TokenIssuer) VerifyAccess(raw string) (Claims, error) {
	return verify(raw, i.accessSecret)
}

// VerifyRefresh is the refresh-secret counterpart of VerifyAccess. Signature
// validity is necessary but not sufficient for a refresh token: the caller
// must additionally match its fingerprint against the account record.
func (i *TokenIssuer) VerifyRefresh(raw string) (Claims, error) {
	return verify(raw, i.refreshSecret)
}

// Fingerprint returns the SHA-256 hex digest of a raw token. The store keeps
// only this digest, never the token itself.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func sign(claims jwt.MapClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verify(raw string, secret []byte) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC so an attacker cannot downgrade to "none"
		// or swap in an asymmetric algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	cl := Claims{}
	switch sub := mc["sub"].(type) {
	case float64:
		// JSON numbers decode as float64.
		cl.UserID = uint64(sub)
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, ErrTokenInvalid
		}
		cl.UserID = n
	default:
		return Claims{}, ErrTokenInvalid
	}
	if cl.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if name, ok := mc["username"].(string); ok {
		cl.Username = name
	}
	return cl, nil
}
