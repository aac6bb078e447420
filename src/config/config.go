package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type Config struct {
	AppPort        string
	MongoURI       string
	MongoDB        string
	RedisURI       string
	JWTSecret      string
	AllowedOrigins string

	S3             S3Config
	DownloadURLTTL time.Duration
	UploadURLTTL   time.Duration

	CataloguePath string
	ArchiveAsync  bool

	LogLevel  string
	LogFormat string
}

// Load อ่านค่าจาก .env (ถ้ามี) แล้วตามด้วย environment ของระบบ
func Load() (*Config, error) {
	// .env เป็น optional ใน production ค่ามาจาก env จริง
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:        getEnv("APP_URI", "8888"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "QAPortalDB"),
		RedisURI:       os.Getenv("REDIS_URI"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "ap-southeast-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    getBool("S3_USE_SSL", true),
		},
		CataloguePath: os.Getenv("CATALOGUE_PATH"),
		ArchiveAsync:  getBool("ARCHIVE_ASYNC", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.DownloadURLTTL, err = getDuration("DOWNLOAD_URL_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UploadURLTTL, err = getDuration("UPLOAD_URL_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	missing := []string{}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.S3.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing env: %s", strings.Join(missing, ", "))
	}
	if c.DownloadURLTTL <= 0 || c.DownloadURLTTL > time.Hour {
		return fmt.Errorf("DOWNLOAD_URL_TTL must be between 0 and 1h, got %s", c.DownloadURLTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
