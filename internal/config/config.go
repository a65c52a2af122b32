package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               string
	AppID              int64
	AppPrivateKey      string
	InstallationID     int64
	Token              string
	APIBaseURL         string
	RepoOwner          string
	RepoName           string
	DefaultBranch      string
	MaxSizeBytes       int64
	RateLimitPerMinute int
	RateLimitBurst     int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		AppID:              readInt64("GITHUB_APP_ID", 0),
		AppPrivateKey:      os.Getenv("GITHUB_APP_PRIVATE_KEY"),
		InstallationID:     readInt64("GITHUB_INSTALLATION_ID", 0),
		Token:              os.Getenv("GITHUB_TOKEN"),
		APIBaseURL:         readString("GITHUB_API_BASE_URL", "https://api.github.com"),
		RepoOwner:          os.Getenv("REPO_OWNER"),
		RepoName:           os.Getenv("REPO_NAME"),
		DefaultBranch:      readString("DEFAULT_BRANCH", "main"),
		MaxSizeBytes:       readInt64("MAX_SIZE_BYTES", 25<<20),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
	}
}

func readString(key, fallback string) string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
