package main

import (
	"log"
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"api/auth"
	"api/config"
	"api/crypto"
	"api/game"
	"api/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr := logger.New(cfg.Debug)
	allowedOrigins := cfg.Origins()

	tokenAge := 24 * time.Hour
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, tokenAge)
	authService := auth.NewService(tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	manager := game.NewManager(rng, logr)
	hub := game.NewHub(manager, logr)
	gameHandler := game.NewGameHandler(hub, manager, allowedOrigins, logr)

	r := CreateServer(allowedOrigins)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/guest", authHandler.GuestHandler)
	}

	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware())

		gameGroup.GET("/ws", gameHandler.ConnectHandler)
		gameGroup.GET("/rooms", gameHandler.ListRoomsHandler)
	}

	logr.Info().Str("addr", cfg.Addr()).Msg("server listening")
	if err := r.Run(cfg.Addr()); err != nil {
		logr.Fatal().Err(err).Msg("server stopped")
	}
}
