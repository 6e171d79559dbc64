package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	ServerPort  int    `yaml:"server_port"`
	LogLevel    string `yaml:"log_level"`

	DatabaseURL string `yaml:"database_url"`

	JWTAccessSecret  []byte `yaml:"-"`
	JWTRefreshSecret []byte `yaml:"-"`

	AccessTTL    time.Duration `yaml:"-"`
	RefreshTTL   time.Duration `yaml:"-"`
	ResetTTL     time.Duration `yaml:"-"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CORSOrigins  []string      `yaml:"cors_origins"`

	EventsDriver   string   `yaml:"events_driver"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	RabbitURL      string   `yaml:"rabbitmq_url"`
	RabbitExchange string   `yaml:"rabbitmq_exchange"`

	ESURL      string `yaml:"es_url"`
	ESUser     string `yaml:"es_user"`
	ESPassword string `yaml:"-"`
	ESIndex    string `yaml:"es_index"`

	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	// Durations are read from the file as strings ("15m", "168h").
	Durations struct {
		Access  string `yaml:"access_ttl"`
		Refresh string `yaml:"refresh_ttl"`
		Reset   string `yaml:"reset_ttl"`
	} `yaml:"durations"`
}

func Default() Config {
	return Config{
		ServiceName:    "resto-admin",
		ServerPort:     8080,
		LogLevel:       "info",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		ResetTTL:       time.Hour,
		EventsDriver:   "none",
		RabbitExchange: "resto_events",
		ESIndex:        "menu_items",
	}
}

// Load starts from Default, merges the YAML file named by CONFIG_FILE when
// set, and lets environment variables override both.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.ServiceName = EnvDefault("SERVICE_NAME", cfg.ServiceName)
	cfg.ServerPort = EnvIntDefault("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = EnvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = EnvDefault("DATABASE_URL", cfg.DatabaseURL)

	cfg.JWTAccessSecret = []byte(os.Getenv("JWT_SECRET"))
	cfg.JWTRefreshSecret = []byte(os.Getenv("JWT_REFRESH_SECRET"))

	cfg.AccessTTL = EnvDurationDefault("ACCESS_TTL", cfg.AccessTTL)
	cfg.RefreshTTL = EnvDurationDefault("REFRESH_TTL", cfg.RefreshTTL)
	cfg.ResetTTL = EnvDurationDefault("RESET_TTL", cfg.ResetTTL)
	cfg.CookieSecure = EnvBoolDefault("COOKIE_SECURE", cfg.CookieSecure)
	if v := CSV(os.Getenv("CORS_ORIGINS")); v != nil {
		cfg.CORSOrigins = v
	}

	cfg.EventsDriver = strings.ToLower(EnvDefault("EVENTS_DRIVER", cfg.EventsDriver))
	if v := CSV(os.Getenv("KAFKA_BROKERS")); v != nil {
		cfg.KafkaBrokers = v
	}
	cfg.RabbitURL = EnvDefault("RABBITMQ_URL", cfg.RabbitURL)
	cfg.RabbitExchange = EnvDefault("RABBITMQ_EXCHANGE", cfg.RabbitExchange)

	cfg.ESURL = EnvDefault("ES_URL", cfg.ESURL)
	cfg.ESUser = EnvDefault("ES_USER", cfg.ESUser)
	cfg.ESPassword = os.Getenv("ES_PASSWORD")
	cfg.ESIndex = EnvDefault("ES_INDEX", cfg.ESIndex)

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(EnvIntDefault("TELEGRAM_CHAT_ID", int(cfg.TelegramChatID)))

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{c.Durations.Access, &c.AccessTTL},
		{c.Durations.Refresh, &c.RefreshTTL},
		{c.Durations.Reset, &c.ResetTTL},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("duration %q: %w", d.raw, err)
		}
		*d.dst = v
	}
	return nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
