package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

type Config struct {
	Environment string
	HTTPAddress string
	GRPCAddress string
	LogLevel    string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	Issuer             string

	PasswordHasher string
	PasswordPepper string

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	S3UsePathStyle bool

	UploadDir        string
	MaxUploadSizeMB  int64
	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string

	StoreTimeout time.Duration
	MediaTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int
	HealthInterval time.Duration

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is honoured.
	// Empty means the socket peer is the client.
	TrustedProxies []string
}

// IsProduction reports whether session cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDRESS", ":8000")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MONGO_DATABASE", "videotube")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "240h")
	v.SetDefault("JWT_ISSUER", "videotube")
	v.SetDefault("PASSWORD_HASHER", HasherArgon2id)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_PATH_STYLE", true)
	v.SetDefault("UPLOAD_DIR", "./public/temp")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 10)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("ALLOW_CREDENTIALS", true)
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("MEDIA_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("HEALTH_INTERVAL", "10s")
	v.SetDefault("TRUSTED_PROXIES", "")
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		HTTPAddress: v.GetString("HTTP_ADDRESS"),
		GRPCAddress: v.GetString("GRPC_ADDRESS"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		RefreshTokenTTL:    v.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:             v.GetString("JWT_ISSUER"),

		PasswordHasher: strings.ToLower(v.GetString("PASSWORD_HASHER")),
		PasswordPepper: v.GetString("PASSWORD_PEPPER"),

		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		S3Bucket:       v.GetString("S3_BUCKET"),
		S3Region:       v.GetString("S3_REGION"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3PublicURL:    v.GetString("S3_PUBLIC_URL"),
		S3UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),

		UploadDir:        v.GetString("UPLOAD_DIR"),
		MaxUploadSizeMB:  v.GetInt64("MAX_UPLOAD_SIZE_MB"),
		AllowedOrigins:   splitList(corsOrigins(v)),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),

		StoreTimeout: v.GetDuration("STORE_TIMEOUT"),
		MediaTimeout: v.GetDuration("MEDIA_TIMEOUT"),

		RateLimitRPS:   v.GetInt("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		HealthInterval: v.GetDuration("HEALTH_INTERVAL"),
		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AccessTokenSecret == "" {
		missing = append(missing, "ACCESS_TOKEN_SECRET")
	}
	if c.RefreshTokenSecret == "" {
		missing = append(missing, "REFRESH_TOKEN_SECRET")
	}
	if c.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.PasswordHasher != HasherArgon2id && c.PasswordHasher != HasherBcrypt {
		return fmt.Errorf("unknown PASSWORD_HASHER %q", c.PasswordHasher)
	}
	for _, p := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}
	return nil
}

// corsOrigins prefers the single-origin CORS_ORIGIN key when it is set.
func corsOrigins(v *viper.Viper) string {
	if single := v.GetString("CORS_ORIGIN"); single != "" {
		return single
	}
	return v.GetString("CORS_ORIGINS")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
