package jwt

import (
	"time"

	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// JWTUtil issues and verifies the access/refresh pair. Expiry is checked on
// validation only.
type JWTUtil interface {
	GenerateAccessToken(user model.User) (token string, exp time.Time, jti string, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, jti string, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
