package service

import (
	"context"
	"errors"
	"time"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	"github.com/Miraines/videotube/internal/app/user/jwt"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/Miraines/videotube/internal/domain/user/repo"
	"github.com/Miraines/videotube/internal/infra/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, in dto.RegisterDTO) (model.User, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.Session, error)
	Refresh(ctx context.Context, in dto.RefreshDTO) (model.Session, error)
	Logout(ctx context.Context, p model.Principal) error
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (model.User, error)
	Health(ctx context.Context) error
}

type userService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	media     repo.MediaStore
	hasher    repo.PasswordHasher
	jwtUtil   jwt.JWTUtil
	cfg       *config.Config
	v         *validator.Validate
	log       *zap.Logger
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	ms repo.MediaStore,
	h repo.PasswordHasher,
	jm jwt.JWTUtil,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		userRepo: ur, tokenRepo: tr, media: ms, hasher: h, jwtUtil: jm, cfg: cfg, v: v, log: log,
	}
}

func (a *userService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, a.cfg.StoreTimeout)
}

func (a *userService) mediaCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, a.cfg.MediaTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (a *userService) Health(ctx context.Context) error {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	return errors.Join(a.userRepo.Ping(sctx), a.tokenRepo.Ping(sctx))
}
