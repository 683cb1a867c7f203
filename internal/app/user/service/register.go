package service

import (
	"context"
	"errors"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (a *userService) validateRegister(in dto.RegisterDTO) error {
	err := a.v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return customErrors.NewInvalidArgument("All fields are required")
			}
		}
		return customErrors.NewInvalidArgument("Invalid " + verrs[0].Field())
	}
	return customErrors.NewInvalidArgument(err.Error())
}

func (a *userService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	in.Normalize()
	if err := a.validateRegister(in); err != nil {
		return model.User{}, err
	}

	username := model.NormalizeIdentity(in.Username)
	email := model.NormalizeIdentity(in.Email)

	sctx, cancel := a.storeCtx(ctx)
	_, err := a.userRepo.FindByUsernameOrEmail(sctx, username, email)
	cancel()
	switch {
	case err == nil:
		return model.User{}, customErrors.NewAlreadyExists("User already exists with this username or email")
	case !customErrors.IsNotFound(err):
		return model.User{}, customErrors.WrapInternal(err, "Something went wrong while registering user")
	}

	if in.AvatarPath == "" {
		return model.User{}, customErrors.NewInvalidArgument("Avatar is required")
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Something went wrong while registering user")
	}

	avatar, err := a.upload(ctx, in.AvatarPath)
	if err != nil {
		return model.User{}, customErrors.WrapUpload(err, "Failed to upload avatar")
	}
	uploaded := []model.MediaResult{avatar}

	var cover model.MediaResult
	if in.CoverImagePath != "" {
		cover, err = a.upload(ctx, in.CoverImagePath)
		if err != nil {
			a.compensate(ctx, uploaded)
			return model.User{}, customErrors.WrapUpload(err, "Failed to upload cover image")
		}
		uploaded = append(uploaded, cover)
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     in.FullName,
		Avatar:       avatar.URL,
		CoverImage:   cover.URL,
		PasswordHash: passwordHash,
	}

	created, err := a.createAndFetch(ctx, user)
	if err != nil {
		a.log.Error("failed to create user", zap.String("user_id", user.ID.String()), zap.Error(err))
		a.compensate(ctx, uploaded)
		if customErrors.IsAlreadyExists(err) {
			return model.User{}, customErrors.NewAlreadyExists("User already exists with this username or email")
		}
		return model.User{}, customErrors.WrapInternal(err, "Something went wrong while creating user and files removed")
	}

	return created, nil
}

func (a *userService) createAndFetch(ctx context.Context, user model.User) (model.User, error) {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	id, err := a.userRepo.CreateUser(sctx, user)
	if err != nil {
		return model.User{}, err
	}

	created, err := a.userRepo.GetSanitizedUserByID(sctx, id)
	if err != nil {
		return model.User{}, err
	}
	return created, nil
}

func (a *userService) upload(ctx context.Context, path string) (model.MediaResult, error) {
	mctx, cancel := a.mediaCtx(ctx)
	defer cancel()

	res, err := a.media.Upload(mctx, path)
	if err != nil {
		return model.MediaResult{}, err
	}
	a.log.Info("media uploaded", zap.String("url", res.URL))
	return res, nil
}

// compensate deletes already uploaded media. Failures are logged only; the
// caller still reports its own error.
func (a *userService) compensate(ctx context.Context, uploaded []model.MediaResult) {
	base := context.WithoutCancel(ctx)
	for _, m := range uploaded {
		if m.PublicID == "" {
			continue
		}
		mctx, cancel := a.mediaCtx(base)
		if err := a.media.Delete(mctx, m.PublicID); err != nil {
			a.log.Warn("compensating media delete failed",
				zap.String("public_id", m.PublicID),
				zap.Error(err),
			)
		}
		cancel()
	}
}
