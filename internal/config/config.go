package config

import (
	"os"
	"time"
)

// Config параметры процесса, читаются из окружения
type Config struct {
	Addr          string
	DatabaseDSN   string // пусто — in-memory хранилище
	JWTSecret     string
	JWTTTL        time.Duration
	WebhookSecret string
	Storage       string // "fs" либо "s3"
	UploadDir     string
	S3Bucket      string
}

func Load() Config {
	return Config{
		Addr:          getenv("ESCULAPI_ADDR", ":9091"),
		DatabaseDSN:   os.Getenv("ESCULAPI_DATABASE_DSN"),
		JWTSecret:     getenv("ESCULAPI_JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:        getduration("ESCULAPI_JWT_TTL", 24*time.Hour),
		WebhookSecret: getenv("ESCULAPI_WEBHOOK_SECRET", "dev-webhook-secret"),
		Storage:       getenv("ESCULAPI_STORAGE", "fs"),
		UploadDir:     getenv("ESCULAPI_UPLOAD_DIR", "uploads"),
		S3Bucket:      os.Getenv("ESCULAPI_S3_BUCKET"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
