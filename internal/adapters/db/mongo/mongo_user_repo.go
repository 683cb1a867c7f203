package mongo

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const UsersCollection = "users"

var sanitizedProjection = bson.M{"password": 0, "refreshToken": 0}

type userDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	FullName     string    `bson:"fullName"`
	Avatar       string    `bson:"avatar"`
	CoverImage   string    `bson:"coverImage,omitempty"`
	Password     string    `bson:"password,omitempty"`
	RefreshToken *string   `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toDocument(u model.User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		Password:     u.PasswordHash,
		RefreshToken: u.RefreshToken,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           id,
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		PasswordHash: d.Password,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// MongoUserRepo stores users as documents keyed by their UUID string.
type MongoUserRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique username/email indexes that guard
// against concurrent duplicate registrations.
func (m *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fullName", Value: 1}}},
	})
	if err != nil {
		return customErrors.WrapInternal(err, "EnsureIndexes")
	}
	return nil
}

func (m *MongoUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	if err := user.Validate(); err != nil {
		return uuid.Nil, customErrors.NewInvalidArgument(err.Error())
	}

	now := m.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := m.coll.InsertOne(ctx, toDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (m *MongoUserRepo) findOne(ctx context.Context, op string, filter bson.M, opts ...*options.FindOneOptions) (model.User, error) {
	var doc userDocument
	err := m.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, op)
	}
	u, err := doc.toModel()
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, op)
	}
	return u, nil
}

func (m *MongoUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return m.findOne(ctx, "GetUserByID", bson.M{"_id": id.String()})
}

func (m *MongoUserRepo) GetSanitizedUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return m.findOne(ctx, "GetSanitizedUserByID", bson.M{"_id": id.String()},
		options.FindOne().SetProjection(sanitizedProjection))
}

func (m *MongoUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return model.User{}, customErrors.ErrNotFound
	}
	return m.findOne(ctx, "FindByUsernameOrEmail", bson.M{"$or": or})
}

func (m *MongoUserRepo) UpdateUser(ctx context.Context, user model.User) error {
	if err := user.Validate(); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}
	user.UpdatedAt = m.now().UTC()

	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": user.ID.String()}, toDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	if res.MatchedCount == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (m *MongoUserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "refreshToken": old},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": m.now().UTC()}},
	)
	if err != nil {
		return customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	if res.MatchedCount == 0 {
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (m *MongoUserRepo) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, readpref.Primary())
}
