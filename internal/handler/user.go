package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/model"
	"github.com/iliyamo/movie-wishlist/internal/repository"
	"github.com/iliyamo/movie-wishlist/internal/storage"
)

// maxAvatarBytes caps avatar uploads at 5 MB before decoding.
const maxAvatarBytes = 5 << 20

// UserHandler serves profile reads and updates plus avatar management.
// Avatars may be nil when object storage is not configured; the avatar
// endpoints then report 503 instead of failing at startup.
type UserHandler struct {
	Users   *repository.UserRepo
	Avatars *storage.AvatarStore
}

func NewUserHandler(users *repository.UserRepo, avatars *storage.AvatarStore) *UserHandler {
	return &UserHandler{Users: users, Avatars: avatars}
}

type updateProfileReq struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Age       *int    `json:"age"`
	Bio       *string `json:"bio"`
}

// profileResp is the public view of an account. The password hash and the
// refresh fingerprint are never part of any response.
type profileResp struct {
	ID              uint64    `json:"id"`
	Username        string    `json:"username"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Age             uint8     `json:"age"`
	Bio             *string   `json:"bio"`
	ProfileImageURL *string   `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

func toProfileResp(u model.User) profileResp {
	return profileResp{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Age:             u.Age,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

// GetProfile returns the public fields of any account by id.
func (h *UserHandler) GetProfile(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UpdateProfile applies the provided fields to the caller's own account.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if req.Username != nil {
		*req.Username = strings.TrimSpace(*req.Username)
		if msg := validateUsername(*req.Username); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}
	if req.FirstName != nil {
		if msg := validateName(*req.FirstName); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}
	if req.LastName != nil {
		if msg := validateName(*req.LastName); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}
	if req.Age != nil {
		if msg := validateAge(*req.Age); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}
	if req.Bio != nil {
		if msg := validateBio(*req.Bio); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var age *uint8
	if req.Age != nil {
		a := uint8(*req.Age)
		age = &a
	}
	if err := h.Users.UpdateProfile(ctx, uid, req.Username, req.FirstName, req.LastName, age, req.Bio); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UploadAvatar replaces the caller's avatar image. The previous object is
// deleted from the bucket after the new one is stored and the URL persisted.
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	if h.Avatars == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "avatar storage not configured"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar file required"})
	}
	if fh.Size > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "avatar exceeds 5MB"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read avatar"})
	}
	defer src.Close()
	raw, err := io.ReadAll(io.LimitReader(src, maxAvatarBytes+1))
	if err != nil || len(raw) > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "avatar exceeds 5MB"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	url, err := h.Avatars.Upload(ctx, uid, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image"})
	}
	if err := h.Users.UpdateAvatarURL(ctx, uid, &url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// Best effort: a stale object in the bucket is harmless.
	if u.ProfileImageURL != nil {
		_ = h.Avatars.Delete(ctx, *u.ProfileImageURL)
	}

	return c.JSON(http.StatusOK, echo.Map{"profile_image_url": url})
}

// RemoveAvatar deletes the caller's avatar and clears the stored URL.
func (h *UserHandler) RemoveAvatar(c echo.Context) error {
	if h.Avatars == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "avatar storage not configured"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.ProfileImageURL != nil {
		_ = h.Avatars.Delete(ctx, *u.ProfileImageURL)
	}
	if err := h.Users.UpdateAvatarURL(ctx, uid, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
