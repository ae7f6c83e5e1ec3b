package game

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type GameHandler struct {
	hub      *Hub
	manager  *Manager
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewGameHandler(hub *Hub, manager *Manager, allowedOrigins []string, log zerolog.Logger) *GameHandler {
	return &GameHandler{
		hub:     hub,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser client
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
		log: log.With().Str("component", "game-handler").Logger(),
	}
}

// ConnectHandler upgrades an authenticated request to a websocket and
// starts the client pumps. Identity comes from the auth middleware.
func (h *GameHandler) ConnectHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	name := ctx.GetString("name")
	if id == "" {
		h.log.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("no player id in context, middleware misconfigured")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("player", id).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, id, name, h.log)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

// ListRoomsHandler returns the joinable-room listing for the lobby screen.
func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": h.manager.ListRooms()})
}
