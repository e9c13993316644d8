package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-wishlist/internal/model"
	"github.com/iliyamo/movie-wishlist/internal/utils"
)

// UserRepo persists accounts in the 'users' table. It doubles as the refresh
// fingerprint store: the single currently-valid refresh token fingerprint per
// account lives in the refresh_token_hash column.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,first_name,last_name,age,bio,profile_image_url,is_banned,refresh_token_hash,created_at,updated_at"

// Create inserts a new account and returns its ID. Password hashing happens
// here so a plaintext password never travels further than this call.
func (r *UserRepo) Create(ctx context.Context, email, username, password, firstName, lastName string, age uint8, profileImageURL *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, first_name, last_name, age, profile_image_url) VALUES (?,?,?,?,?,?,?)",
		email, username, hash, firstName, lastName, age, profileImageURL)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an account by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIdentifier fetches an account whose email or username exactly matches
// the identifier. BINARY forces a case-sensitive match regardless of the
// column collation.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE BINARY email=? OR BINARY username=? LIMIT 1",
		identifier, identifier))
}

// UpdateProfile applies the non-nil fields to the account. A username
// collision surfaces as ErrDuplicate via the unique index.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, firstName, lastName *string, age *uint8, bio *string) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if username != nil {
		sets = append(sets, "username=?")
		args = append(args, *username)
	}
	if firstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *firstName)
	}
	if lastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *lastName)
	}
	if age != nil {
		sets = append(sets, "age=?")
		args = append(args, *age)
	}
	if bio != nil {
		sets = append(sets, "bio=?")
		args = append(args, *bio)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil && isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateAvatarURL sets or clears the profile image URL.
func (r *UserRepo) UpdateAvatarURL(ctx context.Context, id uint64, url *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET profile_image_url=? WHERE id=?", url, id)
	return err
}

// SetRefreshFingerprint unconditionally overwrites the stored refresh
// fingerprint. Used on login, where whatever session existed before is
// superseded.
func (r *UserRepo) SetRefreshFingerprint(ctx context.Context, id uint64, fingerprint string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", fingerprint, id)
	return err
}

// SwapRefreshFingerprint replaces the stored fingerprint only when it still
// equals expected. The condition and the write are one UPDATE statement, so
// concurrent rotations for the same account serialize on the row: whoever
// matches first wins, everyone else affects zero rows and gets
// ErrFingerprintConflict. <=> is MySQL's NULL-safe equality.
func (r *UserRepo) SwapRefreshFingerprint(ctx context.Context, id uint64, expected, next string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash <=> ?",
		next, id, expected)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFingerprintConflict
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		bio     sql.NullString
		avatar  sql.NullString
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Age, &bio, &avatar, &u.IsBanned, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	if avatar.Valid {
		u.ProfileImageURL = &avatar.String
	}
	if refresh.Valid {
		u.RefreshTokenHash = &refresh.String
	}
	return u, nil
}

// isDuplicateKey reports whether err is a MySQL 1062 unique violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
