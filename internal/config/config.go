package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates process configuration for the API server and the Discord
// bot. Platform-level runtime settings (webhook URL, thresholds) live in the
// database instead, behind the settings repository.
type Config struct {
	PostgresDSN string

	ListenAddr    string
	AdminUsername string
	AdminPassword string

	// GenerateDelay paces the storefront generate call. Purely cosmetic,
	// not a retry or backoff mechanism.
	GenerateDelay  time.Duration
	RequestTimeout time.Duration

	DiscordBotToken string
	DiscordGuildID  string
	DiscordPrefix   string
	AdminUserIDs    []string
	AutoSetup       bool

	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UsePathStyle bool
	S3Prefix       string
}

// Load reads configuration from environment variables, applying sane defaults.
// needBot controls whether the Discord credentials are required; the API
// server runs without them.
func Load(needBot bool) (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "change-me"),
		GenerateDelay:  time.Millisecond * time.Duration(getInt("GENERATE_DELAY_MS", 2000)),
		RequestTimeout: time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 15)),
		DiscordPrefix:  getEnv("DISCORD_PREFIX", "!"),
		AutoSetup:      getBool("AUTO_SETUP", false),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       os.Getenv("S3_REGION"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3UsePathStyle: getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:       getEnv("S3_PREFIX", "backups"),
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.DiscordBotToken = os.Getenv("DISCORD_BOT_TOKEN")
	cfg.DiscordGuildID = os.Getenv("DISCORD_GUILD_ID")
	cfg.AdminUserIDs = splitList(os.Getenv("ADMIN_USER_IDS"))

	var missing []string
	if cfg.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if needBot {
		if cfg.DiscordBotToken == "" {
			missing = append(missing, "DISCORD_BOT_TOKEN")
		}
		if cfg.DiscordGuildID == "" {
			missing = append(missing, "DISCORD_GUILD_ID")
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// S3Configured reports whether backup uploads to object storage are enabled.
func (c Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Running purely on process environment is fine.
	return nil
}
