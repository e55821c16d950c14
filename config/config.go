package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	JWT     JWTConfig
	AWS     AWSConfig
	LiveKit LiveKitConfig
	Upload  UploadConfig
	Capture CaptureConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis-backed
// features (recording-status fan-out, abort retry queue).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT validation settings. Tokens are issued elsewhere;
// this service only verifies them.
type JWTConfig struct {
	Secret string
}

// AWSConfig holds AWS credentials and the recordings bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	SessionToken         string
	Bucket               string
	PresignExpireMinutes int
}

// Configured reports whether storage credentials and bucket are set.
func (c AWSConfig) Configured() bool {
	return c.Region != "" && c.Bucket != ""
}

// LiveKitConfig holds the egress subsystem endpoint and credentials.
type LiveKitConfig struct {
	URL             string
	APIKey          string
	APISecret       string
	RecordingLayout string // optional room-composite layout name
}

// Configured reports whether the egress subsystem credentials are set.
func (c LiveKitConfig) Configured() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

// UploadConfig holds multipart upload coordinator settings.
type UploadConfig struct {
	PartSizeBytes  int64
	MaxParts       int
	MaxRetries     int
	RetryBackoffMs int
}

// CaptureConfig holds client-side capture settings (cmd/capture).
type CaptureConfig struct {
	ChunkIntervalSec int
	OutputDir        string // directory for temp capture files; empty = os.TempDir()
	FFmpegPath       string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			SessionToken:         getEnv("AWS_SESSION_TOKEN", ""),
			Bucket:               getEnv("AWS_S3_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		LiveKit: LiveKitConfig{
			URL:             getEnv("LIVEKIT_URL", ""),
			APIKey:          getEnv("LIVEKIT_API_KEY", ""),
			APISecret:       getEnv("LIVEKIT_API_SECRET", ""),
			RecordingLayout: getEnv("LIVEKIT_RECORDING_LAYOUT", ""),
		},
		Upload: UploadConfig{
			PartSizeBytes:  int64(getEnvInt("UPLOAD_PART_SIZE_BYTES", 5*1024*1024)),
			MaxParts:       getEnvInt("UPLOAD_MAX_PARTS", 100),
			MaxRetries:     getEnvInt("UPLOAD_MAX_RETRIES", 3),
			RetryBackoffMs: getEnvInt("UPLOAD_RETRY_BACKOFF_MS", 1000),
		},
		Capture: CaptureConfig{
			ChunkIntervalSec: getEnvInt("CAPTURE_CHUNK_INTERVAL_SEC", 10),
			OutputDir:        getEnv("CAPTURE_OUTPUT_DIR", ""),
			FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		},
	}
	if cfg.Upload.PartSizeBytes < 5*1024*1024 {
		return nil, fmt.Errorf("UPLOAD_PART_SIZE_BYTES must be at least 5MB, got %d", cfg.Upload.PartSizeBytes)
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
