package model

import "time"

// User represents a row in the `users` table. The struct carries everything
// the repository layer reads and writes; handlers expose separate response
// types so the password hash and refresh fingerprint never leave the server.
//
// RefreshTokenHash holds the SHA-256 hex digest of the most recently issued
// refresh token, or nil when the user has never logged in (or the previous
// token has been rotated out). Exactly one refresh token is valid per account
// at any instant: overwriting this column is what invalidates the old one.
type User struct {
	ID               uint64     // users.id
	Email            string     // users.email (unique)
	Username         string     // users.username (unique)
	PasswordHash     string     // users.password_hash (bcrypt)
	FirstName        string     // users.first_name
	LastName         string     // users.last_name
	Age              uint8      // users.age
	Bio              *string    // users.bio (nullable)
	ProfileImageURL  *string    // users.profile_image_url (nullable)
	IsBanned         bool       // users.is_banned
	RefreshTokenHash *string    // users.refresh_token_hash (nullable)
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}
