package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"index;not null"`
	Avatar       string    `gorm:"not null"`
	CoverImage   string
	PasswordHash string  `gorm:"column:password;not null"`
	RefreshToken *string `gorm:"column:refresh_token"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of u without the password hash and refresh token.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

// Validate checks the invariants every persisted user must satisfy.
func (u User) Validate() error {
	switch {
	case u.ID == uuid.Nil:
		return errMissing("id")
	case strings.TrimSpace(u.Username) == "":
		return errMissing("username")
	case strings.TrimSpace(u.Email) == "":
		return errMissing("email")
	case strings.TrimSpace(u.FullName) == "":
		return errMissing("full name")
	case u.Avatar == "":
		return errMissing("avatar")
	case u.PasswordHash == "":
		return errMissing("password")
	}
	return nil
}

// NormalizeIdentity trims and lowercases a username or email.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserId       uuid.UUID
}

// Session is what a successful login or refresh hands back to the transport.
type Session struct {
	User   User
	Tokens TokenPair
}

// MediaResult is the outcome of a media upload. Only URL is persisted;
// PublicID is kept around to delete the object again.
type MediaResult struct {
	URL      string
	PublicID string
}

// Principal is the authenticated caller behind an access token.
type Principal struct {
	User      User
	TokenID   string
	ExpiresAt time.Time
}
