package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiBaseURL string `yaml:"gemini_base_url"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"-"`
	MaxStreamBytes int64         `yaml:"-"`
	MaxBodyMB      int64         `yaml:"max_body_mb"`
	MaxStreamMB    int64         `yaml:"max_stream_mb"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	WebhookURL       string `yaml:"webhook_url"`
	ProxyURL         string `yaml:"proxy_url"`

	DatabaseURL string `yaml:"database_url"`
	DiaryDB     string `yaml:"diary_db"`

	LogFile string `yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		Port:           "8000",
		GeminiModel:    "gemini-2.5-flash",
		GeminiBaseURL:  "https://generativelanguage.googleapis.com/v1beta",
		RequestTimeout: 120 * time.Second,
		MaxBodyMB:      16,
		MaxStreamMB:    4,
		AllowedOrigins: []string{"*"},
		DiaryDB:        "smas-diary.db",
	}
}

func MustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return n, nil
}

// Load: defaults, then the YAML file from SMAS_CONFIG (if any), then env.
// GEMINI_API_KEY is optional: without it the proxy answers 500 per request.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("SMAS_CONFIG")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiBaseURL = strings.TrimRight(getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL), "/")
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.WebhookURL = getEnv("WEBHOOK_URL", cfg.WebhookURL)
	cfg.ProxyURL = getEnv("PROXY_URL", cfg.ProxyURL)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DiaryDB = getEnv("DIARY_DB", cfg.DiaryDB)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	secs, err := getEnvInt("REQUEST_TIMEOUT", int64(cfg.RequestTimeout/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(secs) * time.Second

	if cfg.MaxBodyMB, err = getEnvInt("MAX_BODY_MB", cfg.MaxBodyMB); err != nil {
		return nil, err
	}
	if cfg.MaxStreamMB, err = getEnvInt("MAX_STREAM_MB", cfg.MaxStreamMB); err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = cfg.MaxBodyMB << 20
	cfg.MaxStreamBytes = cfg.MaxStreamMB << 20

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
