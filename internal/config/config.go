package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type AppConfig struct {
	AppName       string
	Environment   string
	HTTPPort      string
	PublicBaseURL string
	AdminEmail    string
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Environment, "production")
}

type DatabaseConfig struct {
	Path          string
	FlushInterval time.Duration
	SyncMinBytes  int
}

type AuthConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	SyncToken         string
	SyncTokenBcrypt   string
	AdminToken        string
	AuthRatePerMinute int
}

// AdminSecrets returns the plain and hashed secrets accepted on admin
// routes. ADMIN_TOKEN wins; otherwise the sync secrets are used.
func (a AuthConfig) AdminSecrets() (plain, hash string) {
	if a.AdminToken != "" {
		return a.AdminToken, ""
	}
	return a.SyncToken, a.SyncTokenBcrypt
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
	Size          int
}

type SchedulerConfig struct {
	FlushEvery      string
	TokenPurgeEvery string
}

type LogConfig struct {
	Level string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_PATH", "data/jobs.db")
	v.SetDefault("DB_FLUSH_INTERVAL", "1s")
	v.SetDefault("SYNC_MIN_BYTES", 4096)
	v.SetDefault("FLUSH_EVERY", "@every 30s")
	v.SetDefault("TOKEN_PURGE_EVERY", "@hourly")
	v.SetDefault("REDIS_TTL", "600")
	v.SetDefault("CACHE_SIZE", 512)
	v.SetDefault("AUTH_RATE_PER_MINUTE", 10)
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "read .env")
	}
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			missing = append(missing, key)
		}
		return s
	}
	opt := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	var invalid []string
	dur := func(key string) time.Duration {
		d, err := parseDuration(opt(key))
		if err != nil {
			invalid = append(invalid, key)
		}
		return d
	}
	num := func(key string) int {
		n, err := strconv.Atoi(opt(key))
		if err != nil || n < 0 {
			invalid = append(invalid, key)
		}
		return n
	}

	cfg.App = AppConfig{
		AppName:       req("APP_NAME"),
		Environment:   req("APP_ENV"),
		HTTPPort:      req("HTTP_PORT"),
		PublicBaseURL: strings.TrimRight(opt("PUBLIC_BASE_URL"), "/"),
		AdminEmail:    opt("ADMIN_EMAIL"),
	}

	cfg.Database = DatabaseConfig{
		Path:          opt("DB_PATH"),
		FlushInterval: dur("DB_FLUSH_INTERVAL"),
		SyncMinBytes:  num("SYNC_MIN_BYTES"),
	}

	cfg.Auth = AuthConfig{
		SessionSecret:     req("SESSION_SECRET"),
		SessionTTL:        dur("SESSION_TTL"),
		SyncToken:         opt("DB_SYNC_TOKEN"),
		SyncTokenBcrypt:   opt("DB_SYNC_TOKEN_BCRYPT"),
		AdminToken:        opt("ADMIN_TOKEN"),
		AuthRatePerMinute: num("AUTH_RATE_PER_MINUTE"),
	}

	cfg.Cache = CacheConfig{
		RedisAddr:     opt("REDIS_ADDR"),
		RedisPassword: opt("REDIS_PASSWORD"),
		TTL:           dur("REDIS_TTL"),
		Size:          num("CACHE_SIZE"),
	}

	cfg.Scheduler = SchedulerConfig{
		FlushEvery:      opt("FLUSH_EVERY"),
		TokenPurgeEvery: opt("TOKEN_PURGE_EVERY"),
	}

	cfg.Log = LogConfig{Level: opt("LOG_LEVEL")}

	if len(missing) > 0 {
		return Config{}, errors.Wrapf(errMissingRequiredEnv, "%s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, errors.Newf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("90s", "720h") and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errors.Newf("negative duration %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.Newf("bad duration %q", s)
	}
	return d, nil
}
