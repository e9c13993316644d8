package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/auth"
	"github.com/iliyamo/movie-wishlist/internal/config"
	"github.com/iliyamo/movie-wishlist/internal/database"
	"github.com/iliyamo/movie-wishlist/internal/handler"
	"github.com/iliyamo/movie-wishlist/internal/middleware"
	"github.com/iliyamo/movie-wishlist/internal/queue"
	"github.com/iliyamo/movie-wishlist/internal/repository"
	"github.com/iliyamo/movie-wishlist/internal/router"
	"github.com/iliyamo/movie-wishlist/internal/storage"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	friends := repository.NewFriendshipRepo(db)
	wishlist := repository.NewWishlistRepo(db)

	tokens := auth.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	svc := auth.NewService(tokens, users)

	// Avatar storage is optional. Without a bucket the avatar endpoints
	// return 503 and everything else works normally.
	var avatars *storage.AvatarStore
	if cfg.AWSBucket != "" {
		avatars, err = storage.NewAvatarStore(context.Background(), cfg.AWSBucket, cfg.AWSRegion)
		if err != nil {
			log.Printf("avatar storage disabled: %v", err)
			avatars = nil
		}
	}

	authH := handler.NewAuthHandler(cfg, users, svc)
	userH := handler.NewUserHandler(users, avatars)
	friendH := handler.NewFriendHandler(friends, users)
	wishH := handler.NewWishlistHandler(wishlist)

	// Redis backs the rate limiter and the response cache. When it is down
	// both middlewares are skipped and requests pass through unthrottled.
	rdb := config.NewRedisClient()
	var authExtra []echo.MiddlewareFunc
	var profileCache echo.MiddlewareFunc
	if rdb != nil {
		rlCfg := config.LoadRateLimitConfig()
		if rlCfg.Enabled {
			authExtra = append(authExtra, middleware.NewTokenBucket(rlCfg, rdb))
		}
		cacheCfg := config.LoadCacheConfig()
		if cacheCfg.Enabled {
			profileCache = middleware.NewRedisCache(cacheCfg, rdb)
		}
	}

	// The security consumer drains token reuse events from RabbitMQ and
	// writes them to the audit log. It reconnects on its own.
	go func() {
		if err := queue.StartTokenReuseConsumer(); err != nil {
			log.Printf("token reuse consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, svc, authExtra...)
	router.RegisterUsers(e, userH, svc, profileCache)
	router.RegisterFriends(e, friendH, svc)
	router.RegisterWishlist(e, wishH, svc)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
