package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-wishlist/internal/model"
)

// FriendshipRepo persists friend requests in the 'friendships' table. A row
// is directed (requester -> addressee) while PENDING and mutual once
// ACCEPTED.
type FriendshipRepo struct{ DB *sql.DB }

func NewFriendshipRepo(db *sql.DB) *FriendshipRepo { return &FriendshipRepo{DB: db} }

// Send creates a PENDING request from requester to addressee. Any existing
// relationship between the two users, in either direction and either state,
// blocks a new request with ErrConflict.
func (r *FriendshipRepo) Send(ctx context.Context, requesterID, addresseeID uint64) (uint64, error) {
	var existing string
	err := r.DB.QueryRowContext(ctx,
		`SELECT status FROM friendships
		 WHERE (requester_id=? AND addressee_id=?) OR (requester_id=? AND addressee_id=?)
		 LIMIT 1`,
		requesterID, addresseeID, addresseeID, requesterID).Scan(&existing)
	switch {
	case err == nil:
		return 0, ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO friendships (requester_id, addressee_id, status) VALUES (?,?,?)",
		requesterID, addresseeID, model.FriendshipPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Accept flips a PENDING request to ACCEPTED and returns the requester's id
// so the caller can notify them. Only the addressee may accept.
func (r *FriendshipRepo) Accept(ctx context.Context, userID, friendshipID uint64) (uint64, error) {
	var (
		requesterID uint64
		addresseeID uint64
		status      string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT requester_id, addressee_id, status FROM friendships WHERE id=? LIMIT 1",
		friendshipID).Scan(&requesterID, &addresseeID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if addresseeID != userID {
		return 0, ErrForbidden
	}
	if status == model.FriendshipAccepted {
		return 0, ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE friendships SET status=? WHERE id=?", model.FriendshipAccepted, friendshipID)
	if err != nil {
		return 0, err
	}
	return requesterID, nil
}

// Delete removes a friendship or rejects a pending request. The caller must
// be one of the two participants.
func (r *FriendshipRepo) Delete(ctx context.Context, userID, friendshipID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM friendships WHERE id=? AND (requester_id=? OR addressee_id=?)",
		friendshipID, userID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Friends lists the accepted friends of a user, most recently accepted first.
func (r *FriendshipRepo) Friends(ctx context.Context, userID uint64, page, limit int) ([]model.FriendSummary, error) {
	offset, limit := pageWindow(page, limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.username, u.profile_image_url
		 FROM friendships f
		 JOIN users u ON u.id = IF(f.requester_id=?, f.addressee_id, f.requester_id)
		 WHERE f.status=? AND (f.requester_id=? OR f.addressee_id=?)
		 ORDER BY f.updated_at DESC
		 LIMIT ? OFFSET ?`,
		userID, model.FriendshipAccepted, userID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FriendSummary{}
	for rows.Next() {
		var (
			s      model.FriendSummary
			avatar sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Username, &avatar); err != nil {
			return nil, err
		}
		if avatar.Valid {
			s.ProfileImageURL = &avatar.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Pending lists requests the user has received and not yet answered.
func (r *FriendshipRepo) Pending(ctx context.Context, userID uint64, page, limit int) ([]model.FriendRequest, error) {
	return r.listRequests(ctx, "addressee_id", "requester_id", userID, page, limit)
}

// Sent lists requests the user has sent that are still pending.
func (r *FriendshipRepo) Sent(ctx context.Context, userID uint64, page, limit int) ([]model.FriendRequest, error) {
	return r.listRequests(ctx, "requester_id", "addressee_id", userID, page, limit)
}

func (r *FriendshipRepo) listRequests(ctx context.Context, ownCol, otherCol string, userID uint64, page, limit int) ([]model.FriendRequest, error) {
	offset, limit := pageWindow(page, limit)
	// ownCol/otherCol are fixed column names chosen by the callers above,
	// never user input.
	rows, err := r.DB.QueryContext(ctx,
		`SELECT f.id, f.updated_at, u.id, u.username, u.profile_image_url
		 FROM friendships f
		 JOIN users u ON u.id = f.`+otherCol+`
		 WHERE f.`+ownCol+`=? AND f.status=?
		 ORDER BY f.updated_at DESC
		 LIMIT ? OFFSET ?`,
		userID, model.FriendshipPending, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FriendRequest{}
	for rows.Next() {
		var (
			req    model.FriendRequest
			avatar sql.NullString
		)
		if err := rows.Scan(&req.FriendshipID, &req.RequestedAt, &req.User.ID, &req.User.Username, &avatar); err != nil {
			return nil, err
		}
		if avatar.Valid {
			req.User.ProfileImageURL = &avatar.String
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Status reports the relationship between two users: the friendship status
// ("NONE" when unrelated), the row id, and whether current is the requester.
func (r *FriendshipRepo) Status(ctx context.Context, currentID, targetID uint64) (status string, id uint64, isRequester bool, err error) {
	var requesterID uint64
	err = r.DB.QueryRowContext(ctx,
		`SELECT id, status, requester_id FROM friendships
		 WHERE (requester_id=? AND addressee_id=?) OR (requester_id=? AND addressee_id=?)
		 LIMIT 1`,
		currentID, targetID, targetID, currentID).Scan(&id, &status, &requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "NONE", 0, false, nil
		}
		return "", 0, false, err
	}
	return status, id, requesterID == currentID, nil
}

// pageWindow normalizes 1-based pagination into LIMIT/OFFSET values.
func pageWindow(page, limit int) (offset, lim int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
