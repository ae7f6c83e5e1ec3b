package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissingTokenStr         = "missing-token"
	ErrInvalidTokenStr         = "invalid-token"
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrInvalidNameStr          = "invalid-name"
)

type AuthHandler struct {
	service      *Service
	cookieMaxAge time.Duration
}

func NewAuthHandler(service *Service, cookieMaxAge time.Duration) *AuthHandler {
	return &AuthHandler{service: service, cookieMaxAge: cookieMaxAge}
}

// GuestHandler creates a guest session: validates the requested display
// name, mints an id and returns the token both as a cookie and in the body
// (websocket clients pass it as a query parameter).
func (ah *AuthHandler) GuestHandler(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		return
	}

	guest, err := ah.service.CreateGuest(req.Name)
	if err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidNameStr)
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", guest.Token, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.JSON(http.StatusOK, guest)
}

// RequireAuthMiddleware resolves the session token from the cookie or, for
// websocket upgrades where cookies may be unavailable, the "token" query
// parameter. On success the player id and name land in the gin context.
func (ah *AuthHandler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil || token == "" {
			token = ctx.Query("token")
		}
		if token == "" {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		id, name, err := ah.service.VerifyToken(token)
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrInvalidTokenStr)
			ctx.Abort()
			return
		}

		ctx.Set("id", id)
		ctx.Set("name", name)
		ctx.Next()
	}
}
