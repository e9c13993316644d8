package repository

import (
	"context"
	"database/sql"
)

// WishlistRepo persists favorite movies and TV shows. The tables only hold
// external catalog ids; titles and artwork live in the client's catalog
// provider.
type WishlistRepo struct{ DB *sql.DB }

func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{DB: db} }

// AddMovie inserts a favorite movie; a duplicate entry returns ErrDuplicate.
func (r *WishlistRepo) AddMovie(ctx context.Context, userID, movieID uint64) error {
	return r.add(ctx, "INSERT INTO favorite_movies (user_id, movie_id) VALUES (?,?)", userID, movieID)
}

// RemoveMovie deletes a favorite movie; a missing entry returns ErrNotFound.
func (r *WishlistRepo) RemoveMovie(ctx context.Context, userID, movieID uint64) error {
	return r.remove(ctx, "DELETE FROM favorite_movies WHERE user_id=? AND movie_id=?", userID, movieID)
}

// AddTVShow inserts a favorite TV show; a duplicate entry returns ErrDuplicate.
func (r *WishlistRepo) AddTVShow(ctx context.Context, userID, tvShowID uint64) error {
	return r.add(ctx, "INSERT INTO favorite_tv_shows (user_id, tv_show_id) VALUES (?,?)", userID, tvShowID)
}

// RemoveTVShow deletes a favorite TV show; a missing entry returns ErrNotFound.
func (r *WishlistRepo) RemoveTVShow(ctx context.Context, userID, tvShowID uint64) error {
	return r.remove(ctx, "DELETE FROM favorite_tv_shows WHERE user_id=? AND tv_show_id=?", userID, tvShowID)
}

// FavoriteIDs returns all favorite movie and TV show ids for a user. This is
// the bulk endpoint the client calls once to light up its wishlist buttons.
func (r *WishlistRepo) FavoriteIDs(ctx context.Context, userID uint64) (movieIDs, tvShowIDs []uint64, err error) {
	movieIDs, err = r.ids(ctx, "SELECT movie_id FROM favorite_movies WHERE user_id=?", userID)
	if err != nil {
		return nil, nil, err
	}
	tvShowIDs, err = r.ids(ctx, "SELECT tv_show_id FROM favorite_tv_shows WHERE user_id=?", userID)
	if err != nil {
		return nil, nil, err
	}
	return movieIDs, tvShowIDs, nil
}

func (r *WishlistRepo) add(ctx context.Context, query string, userID, itemID uint64) error {
	_, err := r.DB.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *WishlistRepo) remove(ctx context.Context, query string, userID, itemID uint64) error {
	res, err := r.DB.ExecContext(ctx, query, userID, itemID)
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

func (r *WishlistRepo) ids(ctx context.Context, query string, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
