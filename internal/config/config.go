package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	// Google sign-in (server-side ID token verification).
	GoogleClientID string

	// Object storage for raw uploads (S3 or MinIO via endpoint override).
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	S3UseSSL          bool

	AllowedOrigins []string

	MaxUploadBytes int64

	OTLPEndpoint string

	// YouTube publish credentials for the worker. The refresh token comes
	// from a one-time offline-access consent.
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string

	// Dev-only seed accounts
	SeedCreatorEmail    string
	SeedCreatorPassword string
	SeedEditorEmail     string
	SeedEditorPassword  string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", "flarepp-media"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3UseSSL:          getEnv("S3_USE_SSL", "true") == "true",

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		YouTubeClientID:     getEnv("YT_CLIENT_ID", ""),
		YouTubeClientSecret: getEnv("YT_CLIENT_SECRET", ""),
		YouTubeRefreshToken: getEnv("YT_REFRESH_TOKEN", ""),

		SeedCreatorEmail:    getEnv("SEED_CREATOR_EMAIL", ""),
		SeedCreatorPassword: getEnv("SEED_CREATOR_PASSWORD", ""),
		SeedEditorEmail:     getEnv("SEED_EDITOR_EMAIL", ""),
		SeedEditorPassword:  getEnv("SEED_EDITOR_PASSWORD", ""),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "flarepp")
	pass := getEnv("DB_PASSWORD", "flarepp")
	name := getEnv("DB_NAME", "flarepp")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
