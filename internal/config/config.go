package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBDriver   string
	DBDSN      string
	MongoDB    string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	LogLevel   string
	LogFormat  string
	RateLimits RateLimits
}

type RateLimits struct {
	LoginPerMinute   int
	PostPerMinute    int
	CommentPerMinute int
}

func Load() Config {
	addr := envString("DEVCONNECT_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":5000"
		}
	}
	cfg := Config{
		Addr:       addr,
		DBDriver:   envString("DEVCONNECT_DB_DRIVER", "sqlite"),
		DBDSN:      envString("DEVCONNECT_DB_DSN", "devconnect.db"),
		MongoDB:    envString("DEVCONNECT_MONGO_DB", "devconnect"),
		JWTSecret:  envString("DEVCONNECT_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:   envDuration("DEVCONNECT_TOKEN_TTL", 360000*time.Second),
		BcryptCost: envInt("DEVCONNECT_BCRYPT_COST", 10),
		LogLevel:   envString("DEVCONNECT_LOG_LEVEL", "info"),
		LogFormat:  envString("DEVCONNECT_LOG_FORMAT", "text"),
		RateLimits: RateLimits{
			LoginPerMinute:   envInt("DEVCONNECT_RL_LOGIN_PER_MIN", 20),
			PostPerMinute:    envInt("DEVCONNECT_RL_POST_PER_MIN", 10),
			CommentPerMinute: envInt("DEVCONNECT_RL_COMMENT_PER_MIN", 30),
		},
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
