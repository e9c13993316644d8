// Package auth implements the authentication token lifecycle: credential
// verification, issuing of access/refresh token pairs, and single-use refresh
// token rotation with reuse detection.
package auth

import "errors"

// Sentinel errors returned by the Service and TokenIssuer. Handlers map these
// to HTTP statuses; the response body never distinguishes between the
// credential failures so account existence cannot be probed.
var (
	// ErrMalformedRequest indicates structurally invalid input, such as an
	// empty token string. Maps to 400.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password". The two cases are deliberately collapsed. Maps to 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountBanned is returned when the account's ban flag is set. It is
	// checked after the secret comparison on login, and re-checked on every
	// rotation because a refresh token can outlive a ban decision. Maps to 403.
	ErrAccountBanned = errors.New("account banned")

	// ErrTokenExpired means the token's signature is fine but its exp claim
	// is in the past. Surfaced distinctly so clients know to force re-login.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid means the token is malformed or its signature does not
	// verify.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrAccountNotFound means the subject id inside a verified token no
	// longer resolves to an account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrReuseDetected is the replay signal: the presented refresh token is
	// validly signed but its fingerprint does not match the one stored for
	// the account, meaning it was already rotated out (or lost a concurrent
	// rotation race). No state is mutated when this is returned.
	ErrReuseDetected = errors.New("refresh token reuse detected")
)

// ReuseError is the concrete error returned for a detected replay. It carries
// the affected account id so the transport layer can emit a security event;
// errors.Is(err, ErrReuseDetected) matches it.
type ReuseError struct {
	UserID uint64
}

func (e *ReuseError) Error() string { return ErrReuseDetected.Error() }

func (e *ReuseError) Is(target error) bool { return target == ErrReuseDetected }
