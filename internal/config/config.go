// Package config loads runtime settings from defaults, an optional YAML
// file and CHATMARK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

const envPrefix = "CHATMARK"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, event streams excluded
	Heartbeat       time.Duration // SSE keep-alive interval
	MaxBodyBytes    int64         // request body limit

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend    string // "memory" | "redis" | "sqlite"
	SQLitePath string // database file for the sqlite backend

	DebounceWindow time.Duration // change notification coalescing window
	AuditInterval  time.Duration // orphan audit interval (0 = disabled)
	GCInterval     time.Duration // empty session collection interval (0 = disabled)
	GCThreshold    time.Duration // idle time before an empty session is collected

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	AllowedOrigins []string // optional, CORS origins (e.g. "chrome-extension://*")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateBurst     int // requests allowed in a burst per client IP (0 = rate limit disabled)
	RatePerMinute int // bucket refill per client IP per minute
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on v.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.listen", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("http.request_timeout", 10*time.Second)
	v.SetDefault("http.heartbeat", 15*time.Second)
	v.SetDefault("http.max_body_bytes", 8<<20)
	v.SetDefault("http.allowed_hosts", "")
	v.SetDefault("http.allowed_cidrs", "")
	v.SetDefault("http.allowed_origins", "")
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("http.rate_limit.burst", 0)
	v.SetDefault("http.rate_limit.per_minute", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.sqlite_path", "chatmark.db")

	v.SetDefault("events.debounce", 250*time.Millisecond)
	v.SetDefault("audit.interval", time.Hour)
	v.SetDefault("gc.interval", 24*time.Hour)
	v.SetDefault("gc.threshold", 30*24*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.password_required", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.max_wait", 10*time.Second)
	v.SetDefault("redis.ping_timeout", 5*time.Second)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.connect_timeout", 30*time.Second)
	v.SetDefault("redis.retry_interval", 2*time.Second)
	v.SetDefault("redis.warn_threshold", 3)
}

// ReadFile merges a YAML config file into v. A missing file is an error
// only when path was given explicitly.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chatmark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load builds and validates a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ListenPort:      v.GetString("http.listen"),
		ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		RequestTimeout:  v.GetDuration("http.request_timeout"),
		Heartbeat:       v.GetDuration("http.heartbeat"),
		MaxBodyBytes:    v.GetInt64("http.max_body_bytes"),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
		PrettyLog: v.GetBool("log.pretty"),

		Backend:    strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
		SQLitePath: v.GetString("store.sqlite_path"),

		DebounceWindow: v.GetDuration("events.debounce"),
		AuditInterval:  v.GetDuration("audit.interval"),
		GCInterval:     v.GetDuration("gc.interval"),
		GCThreshold:    v.GetDuration("gc.threshold"),

		RedisAddr:             v.GetString("redis.addr"),
		RedisUser:             v.GetString("redis.username"),
		RedisPassword:         v.GetString("redis.password"),
		RedisPasswordRequired: v.GetBool("redis.password_required"),
		RedisDB:               v.GetInt("redis.db"),
		RedisDT:               v.GetDuration("redis.dial_timeout"),
		RedisRT:               v.GetDuration("redis.read_timeout"),
		RedisWT:               v.GetDuration("redis.write_timeout"),
		RedisMaxWait:          v.GetDuration("redis.max_wait"),
		RedisPingTimeout:      v.GetDuration("redis.ping_timeout"),
		RedisPoolSize:         v.GetInt("redis.pool_size"),
		RedisConnectTimeout:   v.GetDuration("redis.connect_timeout"),
		RedisRetryInterval:    v.GetDuration("redis.retry_interval"),
		RedisWarnThreshold:    v.GetInt("redis.warn_threshold"),

		AllowedHosts:   stringList(v, "http.allowed_hosts"),
		AllowedCIDRS:   stringList(v, "http.allowed_cidrs"),
		AllowedOrigins: stringList(v, "http.allowed_origins"),
		TrustProxy:     v.GetBool("http.trust_proxy"),

		RateBurst:     v.GetInt("http.rate_limit.burst"),
		RatePerMinute: v.GetInt("http.rate_limit.per_minute"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ListenPort) == "" {
		return errors.New("http.listen is required")
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log.level %q", c.LogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("http.shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("http.request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DebounceWindow < 0 {
		return fmt.Errorf("events.debounce must not be negative, got %s", c.DebounceWindow)
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("audit.interval must not be negative, got %s", c.AuditInterval)
	}
	if c.GCInterval < 0 || c.GCThreshold < 0 {
		return errors.New("gc.interval and gc.threshold must not be negative")
	}
	if c.RateBurst < 0 || c.RatePerMinute < 0 {
		return errors.New("http.rate_limit values must not be negative")
	}

	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
		if c.RedisPasswordRequired && c.RedisPassword == "" {
			return errors.New("redis.password is required when redis.password_required=true")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (want memory, redis or sqlite)", c.Backend)
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// stringList reads a list given either as a YAML sequence or as a comma
// separated string (the env form).
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		return splitAndTrim(raw)
	case []string:
		return splitAndTrim(strings.Join(raw, ","))
	case []any:
		parts := make([]string, 0, len(raw))
		for _, p := range raw {
			parts = append(parts, fmt.Sprint(p))
		}
		return splitAndTrim(strings.Join(parts, ","))
	default:
		return splitAndTrim(fmt.Sprint(raw))
	}
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
