package postgres

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// sanitizedColumns is everything but the password hash and refresh token.
var sanitizedColumns = []string{
	"id", "username", "email", "full_name", "avatar", "cover_image", "created_at", "updated_at",
}

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	if err := user.Validate(); err != nil {
		return uuid.Nil, customErrors.NewInvalidArgument(err.Error())
	}

	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		if isDuplicate(err) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *PostgresUserRepo) first(ctx context.Context, op string, q *gorm.DB) (model.User, error) {
	var u model.User
	res := q.WithContext(ctx).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, op)
	}
	return u, nil
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.first(ctx, "GetUserByID", p.db.Where("id = ?", id))
}

func (p *PostgresUserRepo) GetSanitizedUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.first(ctx, "GetSanitizedUserByID", p.db.Select(sanitizedColumns).Where("id = ?", id))
}

func (p *PostgresUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	switch {
	case username != "" && email != "":
		return p.first(ctx, "FindByUsernameOrEmail", p.db.Where("username = ? OR email = ?", username, email))
	case username != "":
		return p.first(ctx, "FindByUsernameOrEmail", p.db.Where("username = ?", username))
	case email != "":
		return p.first(ctx, "FindByUsernameOrEmail", p.db.Where("email = ?", email))
	default:
		return model.User{}, customErrors.ErrNotFound
	}
}

func (p *PostgresUserRepo) UpdateUser(ctx context.Context, user model.User) error {
	if err := user.Validate(); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		if isDuplicate(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	return nil
}

func (p *PostgresUserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	res := p.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, old).
		Update("refresh_token", next)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (p *PostgresUserRepo) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return customErrors.WrapInternal(err, "Ping")
	}
	return sqlDB.PingContext(ctx)
}
