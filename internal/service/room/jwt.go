package room

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidAuthToken = errors.New("invalid auth token")

type authClaims struct {
	RoomId string `json:"room_id"`
	jwt.RegisteredClaims
}

// generateAuthToken binds userId to roomId so a reconnect keeps the same
// user id.
func (s service) generateAuthToken(roomId, userId string) (string, error) {
	now := s.now()
	claims := authClaims{
		RoomId: roomId,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.authTokenExp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// parseAuthToken returns the user id stored in tokenString if it was issued
// for roomId.
func (s service) parseAuthToken(tokenString, roomId string) (string, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAuthToken, err)
	}

	if !token.Valid || claims.RoomId != roomId || claims.Subject == "" {
		return "", ErrInvalidAuthToken
	}

	return claims.Subject, nil
}
