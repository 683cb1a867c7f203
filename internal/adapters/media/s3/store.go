package s3

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// objectAPI is the part of *s3.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	AccessKey    string
	SecretKey    string
	Region       string
	Endpoint     string
	Bucket       string
	PublicURL    string
	UsePathStyle bool
	Prefix       string
}

type Store struct {
	api     objectAPI
	bucket  string
	baseURL string
	prefix  string
	log     *zap.Logger
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// New builds a store backed by S3 or any S3 compatible endpoint such as MinIO.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStore(client, cfg, log), nil
}

func newStore(api objectAPI, cfg Config, log *zap.Logger) *Store {
	base := cfg.PublicURL
	if base == "" {
		switch {
		case cfg.Endpoint != "":
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		default:
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "media"
	}
	return &Store{
		api:     api,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		prefix:  strings.Trim(prefix, "/"),
		log:     log,
	}
}

func (s *Store) objectKey(localPath string) string {
	d := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("%s/%d/%02d/%s%s", s.prefix, d.Year(), d.Month(), uuid.NewString(), ext)
}

func (s *Store) Upload(ctx context.Context, localPath string) (model.MediaResult, error) {
	defer s.removeLocal(localPath)

	if localPath == "" {
		return model.MediaResult{}, errors.New("empty local path")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return model.MediaResult{}, fmt.Errorf("open %s: %w", filepath.Base(localPath), err)
	}
	defer f.Close()

	key := s.objectKey(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return model.MediaResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return model.MediaResult{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

func (s *Store) removeLocal(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove local upload", zap.String("path", path), zap.Error(err))
	}
}
