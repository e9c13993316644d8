package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/handler"
	"github.com/iliyamo/movie-wishlist/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token lifecycle endpoints and the /v1/me probe.
// Register, login and refresh live under /v1/auth and do not require an
// access token; /v1/me is protected by the JWT middleware. The extra
// middlewares (rate limiter, cache) may be nil when Redis is unavailable.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, verifier middleware.AccessVerifier, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", extra...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1", middleware.JWTAuth(verifier))
	auth.GET("/me", a.Me)
}

// RegisterUsers registers profile endpoints under /v1. All routes require a
// valid access token. The read endpoint for other users' profiles takes an
// optional cache middleware so hot profiles can be served from Redis.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, verifier middleware.AccessVerifier, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/users", middleware.JWTAuth(verifier))
	if cache != nil {
		g.GET("/:id", h.GetProfile, cache)
	} else {
		g.GET("/:id", h.GetProfile)
	}
	g.PATCH("/profile", h.UpdateProfile)
	g.POST("/avatar", h.UploadAvatar)
	g.DELETE("/avatar", h.RemoveAvatar)
}

// RegisterFriends registers the friendship endpoints under /v1/friends.
func RegisterFriends(e *echo.Echo, h *handler.FriendHandler, verifier middleware.AccessVerifier) {
	g := e.Group("/v1/friends", middleware.JWTAuth(verifier))
	g.GET("", h.List)
	g.GET("/pending", h.Pending)
	g.GET("/sent", h.Sent)
	g.GET("/status/:userId", h.Status)
	g.POST("/request", h.SendRequest)
	g.PATCH("/:friendshipId/accept", h.Accept)
	g.DELETE("/:friendshipId", h.Remove)
}

// RegisterWishlist registers the favorite movie and TV show endpoints under
// /v1/wishlist.
func RegisterWishlist(e *echo.Echo, h *handler.WishlistHandler, verifier middleware.AccessVerifier) {
	g := e.Group("/v1/wishlist", middleware.JWTAuth(verifier))
	g.GET("/ids", h.FavoriteIDs)
	g.POST("/movies", h.AddMovie)
	g.DELETE("/movies", h.RemoveMovie)
	g.POST("/tvshows", h.AddTVShow)
	g.DELETE("/tvshows", h.RemoveTVShow)
}
