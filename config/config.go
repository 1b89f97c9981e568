package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultAPIBaseURL  = "https://discord.com/api"
	DefaultRedirectURI = "http://localhost:5173/callback"
	DefaultFrontendURL = "http://localhost:5173"
	DefaultPort        = 3001
)

type LoggerConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Config struct {
	Discord struct {
		Token        string `yaml:"token"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
		APIBaseURL   string `yaml:"api_base_url"`
		Status       string `yaml:"status"`
		Sharding     struct {
			Enabled     bool `yaml:"enabled"`
			TotalShards int  `yaml:"total_shards"`
		} `yaml:"sharding"`
		OAuth struct {
			VerifyState bool `yaml:"verify_state"`
		} `yaml:"oauth"`
	} `yaml:"discord"`

	Server struct {
		Port            int           `yaml:"port"`
		FrontendURL     string        `yaml:"frontend_url"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		TrustedProxies  []string      `yaml:"trusted_proxies"`
		UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Leaderboard struct {
		File    string `yaml:"file"`
		MongoDB struct {
			URI        string `yaml:"uri"`
			Password   string `yaml:"password"`
			Database   string `yaml:"database"`
			Collection string `yaml:"collection"`
		} `yaml:"mongodb"`
	} `yaml:"leaderboard"`

	Activity struct {
		Synthetic *bool `yaml:"synthetic"`
	} `yaml:"activity"`

	Logger LoggerConfig `yaml:"logger"`

	Debug        bool      `yaml:"debug"`
	BotStartTime time.Time `yaml:"-"`
}

// Load reads the optional YAML file at path, then .env, then the process
// environment. Later sources win.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env is optional, same as in development setups without one
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.BotStartTime = time.Now()

	return &cfg, nil
}

// SyntheticActivity reports whether hourly activity buckets get the
// randomized display filler.
func (c *Config) SyntheticActivity() bool {
	if c.Activity.Synthetic == nil {
		return true
	}
	return *c.Activity.Synthetic
}

// OAuthConfigured reports whether the authorization redirect can be built.
func (c *Config) OAuthConfigured() bool {
	return c.Discord.ClientID != "" && c.Discord.RedirectURI != ""
}

func (c *Config) applyEnv() {
	setString(&c.Discord.Token, "DISCORD_BOT_TOKEN")
	setString(&c.Discord.ClientID, "DISCORD_CLIENT_ID")
	setString(&c.Discord.ClientSecret, "DISCORD_CLIENT_SECRET")
	setString(&c.Discord.RedirectURI, "REDIRECT_URI")
	setString(&c.Discord.APIBaseURL, "DISCORD_API_BASE_URL")
	setBool(&c.Discord.OAuth.VerifyState, "OAUTH_VERIFY_STATE")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	setString(&c.Server.FrontendURL, "FRONTEND_URL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = splitList(v)
	}

	setString(&c.Leaderboard.File, "LEVELS_FILE")
	setString(&c.Leaderboard.MongoDB.URI, "MONGO_URI")
	setString(&c.Leaderboard.MongoDB.Password, "MONGO_PASSWORD")
	setString(&c.Leaderboard.MongoDB.Database, "MONGO_DB")

	if v := os.Getenv("ACTIVITY_SYNTHETIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Activity.Synthetic = &b
		}
	}

	setString(&c.Logger.Level, "LOG_LEVEL")
	setString(&c.Logger.File, "LOG_FILE")
	setBool(&c.Debug, "DEBUG")
}

func (c *Config) applyDefaults() {
	if c.Discord.RedirectURI == "" {
		c.Discord.RedirectURI = DefaultRedirectURI
	}
	if c.Discord.APIBaseURL == "" {
		c.Discord.APIBaseURL = DefaultAPIBaseURL
	}
	c.Discord.APIBaseURL = strings.TrimRight(c.Discord.APIBaseURL, "/")

	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = DefaultFrontendURL
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.TrustedProxies == nil {
		c.Server.TrustedProxies = []string{"127.0.0.1", "::1"}
	}
	if c.Server.UpstreamTimeout <= 0 {
		c.Server.UpstreamTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = 2
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = 10
	}

	if c.Leaderboard.File == "" {
		c.Leaderboard.File = "levels.json"
	}
	if c.Leaderboard.MongoDB.Database == "" {
		c.Leaderboard.MongoDB.Database = "aurore"
	}
	if c.Leaderboard.MongoDB.Collection == "" {
		c.Leaderboard.MongoDB.Collection = "levels"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.File == "" {
		c.Logger.File = "logs/aurore.log"
	}
	if c.Logger.MaxSizeMB <= 0 {
		c.Logger.MaxSizeMB = 10
	}
	if c.Logger.MaxBackups <= 0 {
		c.Logger.MaxBackups = 5
	}
	if c.Logger.MaxAgeDays <= 0 {
		c.Logger.MaxAgeDays = 14
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
