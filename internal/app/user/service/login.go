package service

import (
	"context"
	"strings"
	"time"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/google/uuid"
)

const (
	msgTokenFailure = "Something went wrong when generating access and refresh token"
	msgTokenUsed    = "Refresh token is expired or used"
)

// Login accepts username OR email. The password is checked before any token
// is issued, and the refresh token is persisted only after both tokens exist.
func (a *userService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	username := model.NormalizeIdentity(in.Username)
	email := model.NormalizeIdentity(in.Email)

	if username == "" && email == "" {
		return model.Session{}, customErrors.NewInvalidArgument("Username or email is required")
	}
	if in.Password == "" {
		return model.Session{}, customErrors.NewInvalidArgument("Password is required")
	}

	sctx, cancel := a.storeCtx(ctx)
	user, err := a.userRepo.FindByUsernameOrEmail(sctx, username, email)
	cancel()
	switch {
	case customErrors.IsNotFound(err):
		return model.Session{}, customErrors.NewNotFound("User not found")
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Something went wrong while logging in")
	}

	ok, err := a.hasher.Compare(in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Something went wrong while logging in")
	}
	if !ok {
		return model.Session{}, customErrors.NewInvalidCredentials("Invalid user credentials")
	}

	return a.issueSession(ctx, user, nil)
}

// issueSession signs a new pair and persists the refresh token. With
// rotateFrom set, the write is a compare-and-swap against that token.
func (a *userService) issueSession(ctx context.Context, user model.User, rotateFrom *string) (model.Session, error) {
	at, atExp, _, err := a.jwtUtil.GenerateAccessToken(user)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, msgTokenFailure)
	}
	rt, rtExp, _, err := a.jwtUtil.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, msgTokenFailure)
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	if rotateFrom != nil {
		err = a.userRepo.RotateRefreshToken(sctx, user.ID, *rotateFrom, rt)
	} else {
		user.RefreshToken = &rt
		err = a.userRepo.UpdateUser(sctx, user)
	}
	switch {
	case rotateFrom != nil && customErrors.IsInvalidToken(err):
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, msgTokenUsed)
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, msgTokenFailure)
	}

	sanitized, err := a.userRepo.GetSanitizedUserByID(sctx, user.ID)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Something went wrong while fetching logged in user")
	}

	now := time.Now()
	return model.Session{
		User: sanitized,
		Tokens: model.TokenPair{
			AccessToken:  at,
			RefreshToken: rt,
			AccessTTL:    atExp.Sub(now),
			RefreshTTL:   rtExp.Sub(now),
			UserId:       user.ID,
		},
	}, nil
}

// Refresh rotates the pair. The presented token must match the one stored on
// the user and is swapped out atomically, so a refresh token works once even
// under concurrent use.
func (a *userService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.Session, error) {
	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, "Unauthorized request")
	}

	claims, err := a.jwtUtil.ValidateRefreshToken(raw)
	if err != nil {
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid refresh token")
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid refresh token")
	}

	sctx, cancel := a.storeCtx(ctx)
	user, err := a.userRepo.GetUserByID(sctx, uid)
	cancel()
	switch {
	case customErrors.IsNotFound(err):
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid refresh token")
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Something went wrong while refreshing token")
	}

	if user.RefreshToken == nil || *user.RefreshToken != raw {
		return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, msgTokenUsed)
	}

	return a.issueSession(ctx, user, &raw)
}

// Logout drops the stored refresh token and revokes the access token that
// authenticated the call.
func (a *userService) Logout(ctx context.Context, p model.Principal) error {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	user, err := a.userRepo.GetUserByID(sctx, p.User.ID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return customErrors.NewNotFound("User not found")
		}
		return customErrors.WrapInternal(err, "Something went wrong while logging out")
	}

	user.RefreshToken = nil
	if err := a.userRepo.UpdateUser(sctx, user); err != nil {
		return customErrors.WrapInternal(err, "Something went wrong while logging out")
	}

	if p.TokenID != "" {
		if err := a.tokenRepo.RevokeAccess(sctx, p.TokenID, p.ExpiresAt); err != nil {
			return customErrors.WrapInternal(err, "Something went wrong while logging out")
		}
	}
	return nil
}

func (a *userService) Authenticate(ctx context.Context, accessToken string) (model.Principal, error) {
	if accessToken == "" {
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Unauthorized request")
	}

	claims, err := a.jwtUtil.ValidateAccessToken(accessToken)
	if err != nil {
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid access token")
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	revoked, err := a.tokenRepo.IsAccessRevoked(sctx, claims.ID)
	if err != nil {
		return model.Principal{}, customErrors.WrapInternal(err, "Something went wrong while authenticating")
	}
	if revoked {
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid access token")
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid access token")
	}
	user, err := a.userRepo.GetSanitizedUserByID(sctx, uid)
	switch {
	case customErrors.IsNotFound(err):
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid access token")
	case err != nil:
		return model.Principal{}, customErrors.WrapInternal(err, "Something went wrong while authenticating")
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return model.Principal{User: user, TokenID: claims.ID, ExpiresAt: exp}, nil
}

func (a *userService) CurrentUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	user, err := a.userRepo.GetSanitizedUserByID(sctx, id)
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, customErrors.NewNotFound("User not found")
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "Something went wrong while fetching current user")
	}
	return user, nil
}
