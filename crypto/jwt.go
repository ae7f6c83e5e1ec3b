package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid-token")

// guestClaims binds a display name to the player id in the subject.
// Fields must be exported for JSON serialization.
type guestClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	tokenAge  time.Duration
}

func NewJWTManager(secretKey string, tokenAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		tokenAge:  tokenAge,
	}
}

func (m *JWTManager) Generate(id, name string) string {
	claims := guestClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenAge)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, _ := token.SignedString(m.secretKey)

	return signedToken
}

func (m *JWTManager) Verify(tokenString string) (id, name string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &guestClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		return "", "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(*guestClaims); ok && token.Valid {
		return claims.Subject, claims.Name, nil
	}

	return "", "", ErrInvalidToken
}
