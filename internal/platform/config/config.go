package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is an immutable snapshot of the process environment. It is loaded
// once at startup and passed down by value; resolution logic never reads
// process-wide state directly.
type Config struct {
	AppEnv   string  `env:"APP_ENV" envDefault:"local"`
	BotToken string  `env:"BOT_TOKEN"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// SessionCookie is the optional SESSDATA credential attached to upstream
	// requests. Absence degrades some sources rather than failing them.
	SessionCookie string `env:"SESSDATA"`

	// SourcePriority overrides the dynamic source chain order,
	// comma-separated source names.
	SourcePriority []string `env:"SOURCE_PRIORITY" envSeparator:","`

	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"8s"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"25s"`
	FetchRPS       float64       `env:"FETCH_RPS" envDefault:"2"`

	// VideoQuality is the coded quality tier requested from the stream
	// endpoint (80=1080P, 64=720P, 32=480P, 16=360P).
	VideoQuality int `env:"VIDEO_QUALITY" envDefault:"64"`

	EnableDetailedInfo bool `env:"ENABLE_DETAILED_INFO" envDefault:"true"`
	EnableSendLink     bool `env:"ENABLE_SEND_LINK" envDefault:"true"`
	UseShortLink       bool `env:"USE_SHORT_LINK" envDefault:"true"`
	EnableDownload     bool `env:"ENABLE_DOWNLOAD" envDefault:"false"`

	// Duration gates in minutes; zero disables the gate.
	MinimumDurationMin float64 `env:"MINIMUM_DURATION_MIN" envDefault:"0"`
	MaximumDurationMin float64 `env:"MAXIMUM_DURATION_MIN" envDefault:"0"`

	MaxImagesPerReply int `env:"MAX_IMAGES_PER_REPLY" envDefault:"9"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

const validQualityTiers = "80, 64, 32, 16"

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.VideoQuality {
	case 80, 64, 32, 16:
	default:
		return fmt.Errorf("invalid VIDEO_QUALITY %d, valid tiers: %s", c.VideoQuality, validQualityTiers)
	}

	for i, name := range c.SourcePriority {
		c.SourcePriority[i] = strings.TrimSpace(name)
	}

	return nil
}

// IsAdmin reports whether the given chat user may change runtime settings.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}
