package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/auth"
	"github.com/iliyamo/movie-wishlist/internal/config"
	"github.com/iliyamo/movie-wishlist/internal/queue"
	"github.com/iliyamo/movie-wishlist/internal/repository"
	queue_publisher "github.com/iliyamo/movie-wishlist/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Auth  *auth.Service
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, svc *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Auth: svc}
}

// ----- DTOs -----

type registerReq struct {
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Age             int     `json:"age"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type loginReq struct {
	Identifier string `json:"identifier"` // email or username
	Password   string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates an account. Unlike login, it does not issue tokens: the
// client logs in afterwards, which also seeds the refresh fingerprint.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	for _, msg := range []string{
		validateEmail(req.Email),
		validateUsername(req.Username),
		validatePassword(req.Password),
		validateName(req.FirstName),
		validateName(req.LastName),
		validateAge(req.Age),
	} {
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Username, req.Password,
		req.FirstName, req.LastName, uint8(req.Age), req.ProfileImageURL, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"user_id": uid})
}

// Login verifies credentials and returns a fresh access+refresh pair. Wrong
// password and unknown account produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMalformedRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		case errors.Is(err, auth.ErrAccountBanned):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account banned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Username: u.Username},
		Access:  tokenPart{Token: pair.Access, Expires: pair.AccessExp},
		Refresh: tokenPart{Token: pair.Refresh, Expires: pair.RefreshExp},
	})
}

// Refresh rotates a refresh token: the presented token is spent and a new
// pair is returned. A replayed token yields a generic 401 to the caller, but
// is logged distinctly and published to the broker as a security event.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Auth.Rotate(ctx, req.RefreshToken)
	if err != nil {
		var reuse *auth.ReuseError
		switch {
		case errors.Is(err, auth.ErrMalformedRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
		case errors.Is(err, auth.ErrTokenExpired):
			// Distinct message so clients know re-login is required.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
		case errors.As(err, &reuse):
			c.Logger().Warnf("refresh token reuse detected for user %d from %s", reuse.UserID, c.RealIP())
			h.publishReuse(reuse.UserID, c)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrAccountNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, auth.ErrAccountBanned):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account banned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Username: u.Username},
		Access:  tokenPart{Token: pair.Access, Expires: pair.AccessExp},
		Refresh: tokenPart{Token: pair.Refresh, Expires: pair.RefreshExp},
	})
}

// Me returns the identity decoded from the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  c.Get("user_id"),
		"username": c.Get("username"),
	})
}

// publishReuse emits the security event off the request path; a broker outage
// must not change the client-facing outcome.
func (h *AuthHandler) publishReuse(userID uint64, c echo.Context) {
	ev := queue.TokenReuseEvent{
		UserID:     userID,
		RemoteAddr: c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		DetectedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishTokenReuse(ctx, ev)
	}()
}
