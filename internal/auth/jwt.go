// Package auth verifies caller identity and roles. Tokens are HS256 JWTs
// carrying the role list; services receive the resulting Actor and enforce
// role checks themselves.
package auth

import (
	"fmt"

	"insurance-core/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string        `json:"user_id"`
	Roles  []models.Role `json:"roles"`
}

type JWTService struct {
	JWTSecret string
}

func NewJWTService(jwtSecret string) *JWTService {
	return &JWTService{
		JWTSecret: jwtSecret,
	}
}

func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.JWTSecret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// Actor builds the service-layer caller identity from verified claims.
func (c *Claims) Actor() models.Actor {
	return models.Actor{
		ID:    c.UserID,
		Roles: c.Roles,
	}
}
