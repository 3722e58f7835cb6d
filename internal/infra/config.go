package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"coinwatch/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		CoinMarketCap struct {
			RestURL            string  `yaml:"rest_url"`
			Limit              int     `yaml:"limit"`
			TimeoutSec         int     `yaml:"timeout_sec"`
			MaxRetries         int     `yaml:"max_retries"`
			RetryBaseMs        int     `yaml:"retry_base_ms"`
			RetryMaxMs         int     `yaml:"retry_max_ms"`
			RetryJitter        float64 `yaml:"retry_jitter"`         // 0..1, fraction of the delay
			RefreshIntervalSec int     `yaml:"refresh_interval_sec"` // 0 disables background refresh
		} `yaml:"coinmarketcap"`
		Icons struct {
			URLFormat   string `yaml:"url_format"` // printf format with one %d (coin ID)
			Size        int    `yaml:"size"`
			Concurrency int    `yaml:"concurrency"`
			Enabled     bool   `yaml:"enabled"`
		} `yaml:"icons"`
	} `yaml:"api"`

	UI struct {
		TopMoversCount int `yaml:"top_movers_count"`
	} `yaml:"ui"`

	Storage struct {
		Backend string `yaml:"backend"` // "sqlite" or "redis"
		SQLite  struct {
			Path string `yaml:"path"` // empty = OS data dir
		} `yaml:"sqlite"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Server struct {
		Addr  string `yaml:"addr"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration usable without any file.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "coinwatch"
	cfg.App.Version = "dev"
	cfg.API.CoinMarketCap.RestURL = "https://api.coinmarketcap.com"
	cfg.API.CoinMarketCap.Limit = 500
	cfg.API.CoinMarketCap.TimeoutSec = 10
	cfg.API.CoinMarketCap.RefreshIntervalSec = 60
	cfg.API.CoinMarketCap.RetryBaseMs = 500
	cfg.API.CoinMarketCap.RetryMaxMs = 10000
	cfg.API.CoinMarketCap.RetryJitter = 0.2
	cfg.API.Icons.URLFormat = domain.IconURLFormat
	cfg.API.Icons.Size = 32
	cfg.API.Icons.Concurrency = 5
	cfg.API.Icons.Enabled = true
	cfg.UI.TopMoversCount = 10
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Storage.Redis.Prefix = "coinwatch:"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// 파일에 없는 값은 DefaultConfig 값을 유지합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	cmc := c.API.CoinMarketCap
	if !hasPrefix(cmc.RestURL, "http://") && !hasPrefix(cmc.RestURL, "https://") {
		return &domain.ConfigError{Field: "api.coinmarketcap.rest_url", Err: fmt.Errorf("must be an http(s) URL, got %q", cmc.RestURL)}
	}
	if cmc.Limit <= 0 {
		return &domain.ConfigError{Field: "api.coinmarketcap.limit", Err: errors.New("must be positive")}
	}
	if cmc.TimeoutSec <= 0 {
		return &domain.ConfigError{Field: "api.coinmarketcap.timeout_sec", Err: errors.New("must be positive")}
	}
	if cmc.MaxRetries < 0 {
		return &domain.ConfigError{Field: "api.coinmarketcap.max_retries", Err: errors.New("cannot be negative")}
	}
	if cmc.RetryBaseMs <= 0 {
		return &domain.ConfigError{Field: "api.coinmarketcap.retry_base_ms", Err: errors.New("must be positive")}
	}
	if cmc.RetryMaxMs < cmc.RetryBaseMs {
		return &domain.ConfigError{Field: "api.coinmarketcap.retry_max_ms", Err: errors.New("must be at least retry_base_ms")}
	}
	if cmc.RetryJitter < 0 || cmc.RetryJitter > 1 {
		return &domain.ConfigError{Field: "api.coinmarketcap.retry_jitter", Err: errors.New("must be between 0 and 1")}
	}
	if cmc.RefreshIntervalSec < 0 {
		return &domain.ConfigError{Field: "api.coinmarketcap.refresh_interval_sec", Err: errors.New("cannot be negative")}
	}

	if c.API.Icons.Enabled {
		if strings.Count(c.API.Icons.URLFormat, "%d") != 1 {
			return &domain.ConfigError{Field: "api.icons.url_format", Err: errors.New("must contain exactly one %d")}
		}
		if c.API.Icons.Size <= 0 {
			return &domain.ConfigError{Field: "api.icons.size", Err: errors.New("must be positive")}
		}
		if c.API.Icons.Concurrency <= 0 {
			return &domain.ConfigError{Field: "api.icons.concurrency", Err: errors.New("must be positive")}
		}
	}

	if c.UI.TopMoversCount <= 0 {
		return &domain.ConfigError{Field: "ui.top_movers_count", Err: errors.New("must be positive")}
	}

	switch c.Storage.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return &domain.ConfigError{Field: "storage.redis.addr", Err: errors.New("required for redis backend")}
		}
	default:
		return &domain.ConfigError{Field: "storage.backend", Err: fmt.Errorf("unknown backend %q", c.Storage.Backend)}
	}

	if c.Server.Addr == "" {
		return &domain.ConfigError{Field: "server.addr", Err: errors.New("required")}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("COINWATCH_CMC_URL"); v != "" {
		cfg.API.CoinMarketCap.RestURL = v
	}
	if v := os.Getenv("COINWATCH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("COINWATCH_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("COINWATCH_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("COINWATCH_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = n
		}
	}
	if v := os.Getenv("COINWATCH_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("COINWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
