package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Secrets never have in-code defaults; they must come from the config file
// or the environment.
type AppConfig struct {
	AppPort string
	GinMode string

	// Database connection; DatabaseURI takes precedence over the split fields.
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Token issuance
	JWTSecret        string
	JWTAlgorithm     string
	JWTExpireMinutes int

	// Master passphrase required to register an account with the admin flag.
	RootPass string

	RateLimitPerMinute int
	AllowedOrigins     []string

	// Redis read cache; disabled when RedisHost is empty.
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load reads configuration once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}
	if cfg.RootPass == "" {
		log.Fatal("ROOT_PASS must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Used by tests and tooling that
// construct their own AppConfig instead of reading files/environment.
func Set(c AppConfig) {
	cfg = c
	loaded = true
}

// loadJSONConfig reads a flat JSON file into cfg if present. Returns an
// error only for invalid JSON; a missing file is ignored.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(key string) string {
		if s, ok := raw[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(key string) int {
		switch t := raw[key].(type) {
		case float64:
			return int(t)
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
		return 0
	}
	getBool := func(key string) bool {
		b, _ := raw[key].(bool)
		return b
	}
	getStringSlice := func(key string) []string {
		arr, ok := raw[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	out.AppPort = getString("AppPort")
	out.GinMode = getString("GinMode")
	out.DatabaseURI = getString("DatabaseURI")
	out.DBHost = getString("DBHost")
	out.DBPort = getString("DBPort")
	out.DBUser = getString("DBUser")
	out.DBPassword = getString("DBPassword")
	out.DBName = getString("DBName")
	out.JWTSecret = getString("JWTSecret")
	out.JWTAlgorithm = getString("JWTAlgorithm")
	out.JWTExpireMinutes = getInt("JWTExpireMinutes")
	out.RootPass = getString("RootPass")
	out.RateLimitPerMinute = getInt("RateLimitPerMinute")
	out.AllowedOrigins = getStringSlice("AllowedOrigins")
	out.RedisHost = getString("RedisHost")
	out.RedisPort = getInt("RedisPort")
	out.RedisDB = getInt("RedisDB")
	out.RedisPassword = getString("RedisPassword")
	out.LogLevel = getString("LogLevel")
	out.LogPath = getString("LogPath")
	out.LogMaxSizeMB = getInt("LogMaxSizeMB")
	out.LogMaxBackups = getInt("LogMaxBackups")
	out.LogMaxAgeDays = getInt("LogMaxAgeDays")
	out.LogCompress = getBool("LogCompress")
	return nil
}

func applyDefaults(out *AppConfig) {
	if out.AppPort == "" {
		out.AppPort = "8000"
	}
	if out.GinMode == "" {
		out.GinMode = "release"
	}
	if out.DBHost == "" {
		out.DBHost = "127.0.0.1"
	}
	if out.DBPort == "" {
		out.DBPort = "3306"
	}
	if out.DBUser == "" {
		out.DBUser = "blogapi"
	}
	if out.DBName == "" {
		out.DBName = "blogapi"
	}
	if out.JWTAlgorithm == "" {
		out.JWTAlgorithm = "HS256"
	}
	if out.JWTExpireMinutes == 0 {
		out.JWTExpireMinutes = 60
	}
	if out.RateLimitPerMinute == 0 {
		out.RateLimitPerMinute = 60
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = []string{"*"}
	}
	if out.RedisPort == 0 {
		out.RedisPort = 6379
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.LogPath == "" {
		out.LogPath = "logs/app.log"
	}
}

func applyEnvOverrides(out *AppConfig) {
	out.AppPort = getEnv("APP_PORT", out.AppPort)
	out.GinMode = getEnv("GIN_MODE", out.GinMode)
	out.DatabaseURI = getEnv("DATABASE_URI", out.DatabaseURI)
	out.DBHost = getEnv("DATABASE_HOSTNAME", out.DBHost)
	out.DBPort = getEnv("DATABASE_PORT", out.DBPort)
	out.DBUser = getEnv("DATABASE_USERNAME", out.DBUser)
	out.DBPassword = getEnv("DATABASE_PASSWORD", out.DBPassword)
	out.DBName = getEnv("DATABASE_NAME", out.DBName)
	out.JWTSecret = getEnv("JWT_SECRET", out.JWTSecret)
	out.JWTAlgorithm = getEnv("JWT_ALGORITHM", out.JWTAlgorithm)
	out.JWTExpireMinutes = getEnvInt("JWT_EXPIRE_MINUTES", out.JWTExpireMinutes)
	out.RootPass = getEnv("ROOT_PASS", out.RootPass)
	out.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", out.RateLimitPerMinute)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				origins = append(origins, s)
			}
		}
		if len(origins) > 0 {
			out.AllowedOrigins = origins
		}
	}
	out.RedisHost = getEnv("REDIS_HOST", out.RedisHost)
	out.RedisPort = getEnvInt("REDIS_PORT", out.RedisPort)
	out.RedisDB = getEnvInt("REDIS_DB", out.RedisDB)
	out.RedisPassword = getEnv("REDIS_PASSWORD", out.RedisPassword)
	out.LogLevel = getEnv("LOG_LEVEL", out.LogLevel)
	out.LogPath = getEnv("LOG_PATH", out.LogPath)
	out.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", out.LogMaxSizeMB)
	out.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", out.LogMaxBackups)
	out.LogMaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", out.LogMaxAgeDays)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		out.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
