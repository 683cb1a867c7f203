package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myMongoRepo "github.com/Miraines/videotube/internal/adapters/db/mongo"
	myPostgresRepo "github.com/Miraines/videotube/internal/adapters/db/postgres"
	myRedisRepo "github.com/Miraines/videotube/internal/adapters/db/redis"
	s3media "github.com/Miraines/videotube/internal/adapters/media/s3"
	myGrpc "github.com/Miraines/videotube/internal/adapters/transport/grpc"
	httptransport "github.com/Miraines/videotube/internal/adapters/transport/http"
	"github.com/Miraines/videotube/internal/adapters/transport/ratelimit"
	"github.com/Miraines/videotube/internal/app/user/jwt"
	appsvc "github.com/Miraines/videotube/internal/app/user/service"
	"github.com/Miraines/videotube/internal/domain/user/repo"
	"github.com/Miraines/videotube/internal/infra/config"
	lg "github.com/Miraines/videotube/internal/infra/log"
	"github.com/Miraines/videotube/internal/infra/migrate"
	"github.com/Miraines/videotube/internal/infra/password"
	"github.com/Miraines/videotube/internal/infra/server"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLog := lg.Must(cfg.Environment, cfg.LogLevel)
	defer zapLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := openUserRepo(rootCtx, cfg, zapLog)
	if err != nil {
		return fmt.Errorf("failed to open %s user store: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()
	tokenRepo := myRedisRepo.NewRedisTokenRepo(redisCli)

	hasher, err := password.New(cfg.PasswordHasher, cfg.PasswordPepper)
	if err != nil {
		return fmt.Errorf("failed to init password hasher: %w", err)
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		return fmt.Errorf("failed to init JWT util: %w", err)
	}

	media, err := s3media.New(rootCtx, s3media.Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		Bucket:       cfg.S3Bucket,
		PublicURL:    cfg.S3PublicURL,
		UsePathStyle: cfg.S3UsePathStyle,
	}, zapLog)
	if err != nil {
		return fmt.Errorf("failed to init media store: %w", err)
	}

	svc := appsvc.New(userRepo, tokenRepo, media, hasher, jwtUtil, cfg, validator.New(), zapLog)

	limiter := ratelimit.NewPerIP(cfg.RateLimitRPS, cfg.RateLimitBurst, 10_000, time.Hour)
	defer limiter.Close()

	router := httptransport.NewRouter(cfg, svc, limiter, zapLog)
	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthSrv := health.NewServer()
	grpcServer := server.NewGRPCServer(zapLog, limiter, healthSrv)
	reporter := myGrpc.NewHealthReporter(svc, healthSrv, cfg.HealthInterval, zapLog)

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartGRPCServer(ctx, cfg.GRPCAddress, grpcServer, zapLog)
	})

	g.Go(func() error {
		return reporter.Run(ctx)
	})

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zapLog.Info("shutdown signal received")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		return err
	}
	return nil
}

// openUserRepo connects the configured credential store and returns it with
// its cleanup function.
func openUserRepo(ctx context.Context, cfg *config.Config, log *zap.Logger) (repo.UserRepo, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("mongo disconnect", zap.Error(err))
			}
		}

		r := myMongoRepo.NewMongoUserRepo(client.Database(cfg.MongoDatabase))
		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := r.EnsureIndexes(idxCtx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return r, closeFn, nil

	default:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = sqlDB.Close() }

		if err := migrate.Up(sqlDB); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return myPostgresRepo.NewPostgresUserRepo(db), closeFn, nil
	}
}
