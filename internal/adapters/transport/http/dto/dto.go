package dto

import (
	"strings"
	"time"

	"github.com/Miraines/videotube/internal/domain/user/model"
)

// RegisterDTO carries the registration form. AvatarPath and CoverImagePath
// point at files the transport already stored locally.
type RegisterDTO struct {
	Username       string `form:"username" json:"username" validate:"required"`
	Email          string `form:"email"    json:"email"    validate:"required,email"`
	FullName       string `form:"fullName" json:"fullName" validate:"required"`
	Password       string `form:"password" json:"password" validate:"required"`
	AvatarPath     string `form:"-" json:"-"`
	CoverImagePath string `form:"-" json:"-"`
}

func (r *RegisterDTO) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
}

// LoginDTO accepts either identity; at least one of Username and Email is required.
type LoginDTO struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email"    json:"email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `form:"refreshToken" json:"refreshToken"`
}

type UserResponse struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// APIResponse is the envelope every HTTP endpoint answers with.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewAPIResponse(status int, data any, message string) APIResponse {
	return APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	}
}
