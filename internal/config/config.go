// Package config loads bloomcart configuration from a TOML file, an
// optional .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "bloomcart.toml"

// Config holds every setting the binary needs. It is passed explicitly into
// constructors; core packages never read the environment themselves.
type Config struct {
	Model    ModelConfig    `toml:"model"`
	Keys     KeysConfig     `toml:"keys"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Email    EmailConfig    `toml:"email"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Chat     ChatConfig     `toml:"chat"`
	Log      LogConfig      `toml:"log"`
}

type ModelConfig struct {
	Provider       string  `toml:"provider"`
	Name           string  `toml:"name"`
	BaseURL        string  `toml:"base_url"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
}

// WhatsAppConfig configures the chat-message dispatcher.
type WhatsAppConfig struct {
	APIURL         string `toml:"api_url"`
	Token          string `toml:"token"`
	BusinessNumber string `toml:"business_number"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// EmailConfig configures the transactional email dispatcher.
// BusinessEmail is the fallback recipient when the site settings carry none.
type EmailConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	From           string `toml:"from"`
	BusinessEmail  string `toml:"business_email"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ChatConfig bounds what a chat turn loads.
type ChatConfig struct {
	HistoryLimit     int `toml:"history_limit"`
	ReplayLimit      int `toml:"replay_limit"`
	ContextMaxTokens int `toml:"context_max_tokens"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:       "gemini",
			MaxTokens:      1024,
			Temperature:    0.7,
			TimeoutSeconds: 60,
		},
		WhatsApp: WhatsAppConfig{
			TimeoutSeconds: 15,
		},
		Email: EmailConfig{
			APIURL:         "https://api.resend.com",
			From:           "Bloomcart <onboarding@resend.dev>",
			TimeoutSeconds: 15,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: filepath.Join("data", "bloomcart.db"),
		},
		Chat: ChatConfig{
			HistoryLimit:     10,
			ReplayLimit:      50,
			ContextMaxTokens: 3000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config at path, applying defaults for any missing values
// and environment overrides on top. An empty path looks for DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return cfg, fmt.Errorf("config: stat %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}

	ApplyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with any non-empty environment variables.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Keys.Gemini, "GEMINI_API_KEY")
	set(&cfg.Keys.OpenAI, "OPENAI_API_KEY")
	set(&cfg.Keys.Anthropic, "ANTHROPIC_API_KEY")
	set(&cfg.Model.Provider, "BLOOMCART_MODEL_PROVIDER")
	set(&cfg.WhatsApp.APIURL, "WHATSAPP_API_URL")
	set(&cfg.WhatsApp.Token, "WHATSAPP_API_TOKEN")
	set(&cfg.WhatsApp.BusinessNumber, "WHATSAPP_BUSINESS_NUMBER")
	set(&cfg.Email.APIKey, "RESEND_API_KEY")
	set(&cfg.Email.From, "EMAIL_FROM")
	set(&cfg.Email.BusinessEmail, "BUSINESS_EMAIL")
	set(&cfg.Database.Path, "BLOOMCART_DB")
	set(&cfg.Server.Addr, "BLOOMCART_ADDR")
	set(&cfg.Log.Level, "LOG_LEVEL")
	set(&cfg.Log.Format, "LOG_FORMAT")
	if v := getenv("PORT"); v != "" && getenv("BLOOMCART_ADDR") == "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = ":" + v
		}
	}
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// APIKey returns the configured key for the active model provider.
func (c Config) APIKey() string {
	switch c.Model.Provider {
	case "claude":
		return c.Keys.Anthropic
	case "openai":
		return c.Keys.OpenAI
	default:
		return c.Keys.Gemini
	}
}

// ModelTimeout returns the per-call model timeout.
func (c Config) ModelTimeout() time.Duration {
	return seconds(c.Model.TimeoutSeconds, 60)
}

// WhatsAppTimeout returns the WhatsApp dispatcher timeout.
func (c Config) WhatsAppTimeout() time.Duration {
	return seconds(c.WhatsApp.TimeoutSeconds, 15)
}

// EmailTimeout returns the email dispatcher timeout.
func (c Config) EmailTimeout() time.Duration {
	return seconds(c.Email.TimeoutSeconds, 15)
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
