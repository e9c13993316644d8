package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/repository"
)

// WishlistHandler exposes the favorite movie and TV show endpoints.
type WishlistHandler struct {
	Wishlist *repository.WishlistRepo
}

func NewWishlistHandler(wishlist *repository.WishlistRepo) *WishlistHandler {
	return &WishlistHandler{Wishlist: wishlist}
}

type favoriteReq struct {
	MovieID  uint64 `json:"movie_id"`
	TVShowID uint64 `json:"tv_show_id"`
}

// FavoriteIDs returns every favorite id for the caller in one response.
func (h *WishlistHandler) FavoriteIDs(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieIDs, tvShowIDs, err := h.Wishlist.FavoriteIDs(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load favorites"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie_ids":   movieIDs,
		"tv_show_ids": tvShowIDs,
	})
}

// AddMovie stores a movie id on the caller's wishlist.
func (h *WishlistHandler) AddMovie(c echo.Context) error {
	return h.mutate(c, "movie_id", func(ctx context.Context, uid, id uint64) error {
		return h.Wishlist.AddMovie(ctx, uid, id)
	})
}

// RemoveMovie deletes a movie id from the caller's wishlist.
func (h *WishlistHandler) RemoveMovie(c echo.Context) error {
	return h.mutate(c, "movie_id", func(ctx context.Context, uid, id uint64) error {
		return h.Wishlist.RemoveMovie(ctx, uid, id)
	})
}

// AddTVShow stores a TV show id on the caller's wishlist.
func (h *WishlistHandler) AddTVShow(c echo.Context) error {
	return h.mutate(c, "tv_show_id", func(ctx context.Context, uid, id uint64) error {
		return h.Wishlist.AddTVShow(ctx, uid, id)
	})
}

// RemoveTVShow deletes a TV show id from the caller's wishlist.
func (h *WishlistHandler) RemoveTVShow(c echo.Context) error {
	return h.mutate(c, "tv_show_id", func(ctx context.Context, uid, id uint64) error {
		return h.Wishlist.RemoveTVShow(ctx, uid, id)
	})
}

func (h *WishlistHandler) mutate(c echo.Context, field string, op func(ctx context.Context, uid, id uint64) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req favoriteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id := req.MovieID
	if field == "tv_show_id" {
		id = req.TVShowID
	}
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := op(ctx, uid, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already in wishlist"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "wishlist update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
