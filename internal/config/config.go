package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults of the per-key create rate limit.
const (
	DefaultCreateBurst     = 60
	DefaultCreatePerMinute = 120
)

// Storage backends selectable with HOARDERD_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":3000"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout applied by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	APIKeys []string // bearer tokens accepted on /api routes

	// Access control
	AllowedHosts []string // Host headers accepted on /api routes, empty = any
	ProbeCIDRs   []string // IPs/CIDRs allowed on /readyz, empty = any
	TrustProxy   bool     // resolve client IPs from proxy headers

	// Storage
	Store      string // "memory" | "redis" | "sqlite"
	SQLitePath string // database file for the sqlite store (":memory:" allowed)

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

	// Crawler
	CrawlerWorkers   int           // concurrent page fetches
	CrawlerQueueSize int           // buffered bookmark ids waiting for a worker
	CrawlerTimeout   time.Duration // per page fetch
	CrawlerMaxBytes  int64         // response bodies are cut at this size
	CrawlerSweep     time.Duration // interval of the pending-bookmark sweep
	CrawlerUserAgent string

	// Rate limiting of bookmark creation, per API key
	CreateBurst        int
	CreateRefillPerMin int

	// Homepage import
	HomepageBookmarks string        // Homepage bookmarks.yaml to import, empty = off
	HomepageReload    time.Duration // re-import interval, 0 = only on start and SIGHUP
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HOARDERD_LISTEN_PORT", ":3000"),
		ShutdownTimeout: mustDuration("HOARDERD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("HOARDERD_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("HOARDERD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HOARDERD_PRETTY_LOG", true),

		// Auth
		APIKeys: requireEnvSlice("HOARDERD_API_KEYS"),

		// Access control
		AllowedHosts: splitAndTrim(getenv("HOARDERD_ALLOWED_HOSTS", "")),
		ProbeCIDRs:   splitAndTrim(getenv("HOARDERD_PROBE_CIDRS", "")),
		TrustProxy:   mustBool("HOARDERD_TRUST_PROXY", false),

		// Storage
		Store:      strings.ToLower(getenv("HOARDERD_STORE", StoreMemory)),
		SQLitePath: getenv("HOARDERD_SQLITE_PATH", "/data/hoarder.db"),

		// Redis settings
		RedisAddr:             getenv("HOARDERD_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("HOARDERD_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("HOARDERD_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("HOARDERD_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HOARDERD_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Crawler
		CrawlerWorkers:   getenvInt("HOARDERD_CRAWLER_WORKERS", 4),
		CrawlerQueueSize: getenvInt("HOARDERD_CRAWLER_QUEUE_SIZE", 256),
		CrawlerTimeout:   mustDuration("HOARDERD_CRAWLER_TIMEOUT", 15*time.Second),
		CrawlerMaxBytes:  int64(getenvInt("HOARDERD_CRAWLER_MAX_BYTES", 5<<20)),
		CrawlerSweep:     mustDuration("HOARDERD_CRAWLER_SWEEP_INTERVAL", time.Minute),
		CrawlerUserAgent: getenv("HOARDERD_CRAWLER_USER_AGENT", "hoarderd-crawler/1.0"),

		// Rate limiting
		CreateBurst:        getenvInt("HOARDERD_CREATE_BURST", DefaultCreateBurst),
		CreateRefillPerMin: getenvInt("HOARDERD_CREATE_PER_MINUTE", DefaultCreatePerMinute),

		// Homepage import
		HomepageBookmarks: getenv("HOARDERD_HOMEPAGE_BOOKMARKS", ""),
		HomepageReload:    mustDuration("HOARDERD_HOMEPAGE_RELOAD_INTERVAL", 10*time.Minute),
	}

	switch cfg.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		panic(fmt.Sprintf("❌ FATAL: HOARDERD_STORE must be one of memory, redis, sqlite (got %q)", cfg.Store))
	}

	// Validate Redis password configuration
	if cfg.Store == StoreRedis && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: HOARDERD_REDIS_PASSWORD is required when HOARDERD_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	cfgCopy.RedisPassword = "***REDACTED***"
	if c.RedisUser != "" {
		cfgCopy.RedisUser = "***REDACTED***"
	}
	cfgCopy.APIKeys = make([]string, len(c.APIKeys))
	for i := range cfgCopy.APIKeys {
		cfgCopy.APIKeys[i] = "***REDACTED***"
	}
	return cfgCopy
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnvSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	parts := splitAndTrim(v)
	if len(parts) == 0 {
		panic(fmt.Sprintf("❌ FATAL: Environment variable %s holds no values", key))
	}
	return parts
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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
