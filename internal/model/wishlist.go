package model

import "time"

// FavoriteMovie is a row in `favorite_movies`; (user_id, movie_id) is unique.
type FavoriteMovie struct {
	ID        uint64    // favorite_movies.id
	UserID    uint64    // favorite_movies.user_id
	MovieID   uint64    // favorite_movies.movie_id (external catalog id)
	CreatedAt time.Time // favorite_movies.created_at
}

// FavoriteTVShow is a row in `favorite_tv_shows`; (user_id, tv_show_id) is unique.
type FavoriteTVShow struct {
	ID        uint64    // favorite_tv_shows.id
	UserID    uint64    // favorite_tv_shows.user_id
	TVShowID  uint64    // favorite_tv_shows.tv_show_id (external catalog id)
	CreatedAt time.Time // favorite_tv_shows.created_at
}
