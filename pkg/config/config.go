package config

import (
	"os"
	"time"

	"MediaScribe/pkg/cache"
	"MediaScribe/pkg/logger"
	"MediaScribe/pkg/storage"
	"MediaScribe/pkg/util"
)

// BackendConfig points at the transcoding/inference backend.
type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL"`
	Token   string        `env:"BACKEND_TOKEN"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT"`
}

type Config struct {
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	Log      logger.LogConfig
	Cache    cache.Config

	Backend     BackendConfig
	UploadStore string `env:"UPLOAD_STORE"`
	Minio       storage.MinioConfig
	UploadDir   string `env:"UPLOAD_DIR"`
	UploadRate  string `env:"UPLOAD_RATE"`
	WatchDir    string `env:"WATCH_DIR"` // empty disables folder ingest

	PollInterval       time.Duration `env:"POLL_INTERVAL"`
	JobTimeout         time.Duration `env:"JOB_TIMEOUT"`
	UploadRampInterval time.Duration `env:"UPLOAD_RAMP_INTERVAL"`
	Language           string        `env:"TRANSCRIBE_LANGUAGE"`
	JobRetention       time.Duration `env:"JOB_RETENTION"`
	PruneSchedule      string        `env:"JOB_PRUNE_SCHEDULE"`

	PixelsPerSecond float64 `env:"TIMELINE_PIXELS_PER_SECOND"`
	SearchPath      string  `env:"SEARCH_PATH"`
	DefaultLang     string  `env:"DEFAULT_LANG"`

	LLMApiKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL"`
	LLMModel   string `env:"LLM_MODEL"`
}

// Load reads .env files for APP_ENV and then the process environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		return nil, err
	}

	// 2. 组装配置
	cfg := &Config{
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		Mode:     util.GetEnvDefault("MODE", "development"),
		DBDriver: util.GetEnvDefault("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnvDefault("DSN", "mediascribe.db"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnv("LOCAL_CACHE_MAX_SIZE")),
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 30*time.Minute),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		Backend: BackendConfig{
			BaseURL: util.GetEnvDefault("BACKEND_BASE_URL", "http://localhost:9000"),
			Token:   util.GetEnv("BACKEND_TOKEN"),
			Timeout: util.GetDurationEnv("BACKEND_TIMEOUT", 30*time.Second),
		},
		UploadStore: util.GetEnvDefault("UPLOAD_STORE", "backend"),
		Minio: storage.MinioConfig{
			Endpoint:  util.GetEnv("MINIO_ENDPOINT"),
			AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
			SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
			Bucket:    util.GetEnvDefault("MINIO_BUCKET", "media"),
			UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
			BaseURL:   util.GetEnv("MINIO_PUBLIC_URL"),
		},
		UploadDir:          util.GetEnvDefault("UPLOAD_DIR", "uploads"),
		UploadRate:         util.GetEnvDefault("UPLOAD_RATE", "10-M"),
		WatchDir:           util.GetEnv("WATCH_DIR"),
		PollInterval:       util.GetDurationEnv("POLL_INTERVAL", 2*time.Second),
		JobTimeout:         util.GetDurationEnv("JOB_TIMEOUT", 5*time.Minute),
		UploadRampInterval: util.GetDurationEnv("UPLOAD_RAMP_INTERVAL", 500*time.Millisecond),
		Language:           util.GetEnvDefault("TRANSCRIBE_LANGUAGE", "auto"),
		JobRetention:       util.GetDurationEnv("JOB_RETENTION", 7*24*time.Hour),
		PruneSchedule:      util.GetEnvDefault("JOB_PRUNE_SCHEDULE", "@hourly"),
		PixelsPerSecond:    util.GetFloatEnv("TIMELINE_PIXELS_PER_SECOND"),
		SearchPath:         util.GetEnv("SEARCH_PATH"),
		DefaultLang:        util.GetEnvDefault("DEFAULT_LANG", "en"),
		LLMApiKey:          util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:         util.GetEnv("LLM_BASE_URL"),
		LLMModel:           util.GetEnvDefault("LLM_MODEL", "gpt-4o-mini"),
	}
	if cfg.PixelsPerSecond <= 0 {
		cfg.PixelsPerSecond = 100
	}
	if cfg.Cache.Local.MaxSize <= 0 {
		cfg.Cache.Local.MaxSize = 1000
	}
	return cfg, nil
}
