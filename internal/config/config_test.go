package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Model.Provider != "gemini" {
		t.Errorf("provider: got %q, want %q", cfg.Model.Provider, "gemini")
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("history limit: got %d, want 10", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.ReplayLimit != 50 {
		t.Errorf("replay limit: got %d, want 50", cfg.Chat.ReplayLimit)
	}
	if cfg.Email.APIURL != "https://api.resend.com" {
		t.Errorf("email api url: got %q", cfg.Email.APIURL)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.ModelTimeout() != 60*time.Second {
		t.Errorf("model timeout: got %v", cfg.ModelTimeout())
	}
	if cfg.WhatsAppTimeout() != 15*time.Second || cfg.EmailTimeout() != 15*time.Second {
		t.Error("dispatcher timeouts should default to 15s")
	}
}

func TestLoad_NoDefaultFile(t *testing.T) {
	wd, _ := os.Getwd()
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("expected defaults, got history limit %d", cfg.Chat.HistoryLimit)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "bloomcart.toml")
	cfg := Default()
	cfg.Model.Provider = "openai"
	cfg.Chat.HistoryLimit = 4
	cfg.Email.BusinessEmail = "orders@petal.example"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model.Provider != "openai" && os.Getenv("BLOOMCART_MODEL_PROVIDER") == "" {
		t.Errorf("provider: got %q", loaded.Model.Provider)
	}
	if loaded.Chat.HistoryLimit != 4 {
		t.Errorf("history limit: got %d", loaded.Chat.HistoryLimit)
	}
	if loaded.Chat.ReplayLimit != 50 {
		t.Errorf("unset values should keep defaults, got replay %d", loaded.Chat.ReplayLimit)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloomcart.toml")
	data := "[whatsapp]\nbusiness_number = \"919800000000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WhatsApp.BusinessNumber != "919800000000" && os.Getenv("WHATSAPP_BUSINESS_NUMBER") == "" {
		t.Errorf("business number: got %q", cfg.WhatsApp.BusinessNumber)
	}
	if cfg.WhatsApp.TimeoutSeconds != 15 {
		t.Errorf("timeout: got %d", cfg.WhatsApp.TimeoutSeconds)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":           "g-key",
		"RESEND_API_KEY":           "re_123",
		"WHATSAPP_API_URL":         "https://graph.example/v1/messages",
		"WHATSAPP_API_TOKEN":       "tok",
		"WHATSAPP_BUSINESS_NUMBER": "919800000000",
		"BUSINESS_EMAIL":           "owner@petal.example",
		"BLOOMCART_DB":             "/tmp/x.db",
		"LOG_LEVEL":                "debug",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	if cfg.Keys.Gemini != "g-key" || cfg.APIKey() != "g-key" {
		t.Errorf("gemini key: got %q", cfg.Keys.Gemini)
	}
	if cfg.Email.APIKey != "re_123" || cfg.Email.BusinessEmail != "owner@petal.example" {
		t.Errorf("email: got %+v", cfg.Email)
	}
	if cfg.WhatsApp.Token != "tok" || cfg.WhatsApp.BusinessNumber != "919800000000" {
		t.Errorf("whatsapp: got %+v", cfg.WhatsApp)
	}
	if cfg.Database.Path != "/tmp/x.db" || cfg.Log.Level != "debug" {
		t.Errorf("db/log: got %q %q", cfg.Database.Path, cfg.Log.Level)
	}
	if cfg.Email.From != Default().Email.From {
		t.Error("unset variables must not clear values")
	}
}

func TestApplyEnv_Port(t *testing.T) {
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string {
		if k == "PORT" {
			return "3000"
		}
		return ""
	})
	if cfg.Server.Addr != ":3000" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
}

func TestAPIKey_Provider(t *testing.T) {
	cfg := Default()
	cfg.Keys = KeysConfig{Anthropic: "a", OpenAI: "o", Gemini: "g"}
	for provider, want := range map[string]string{"claude": "a", "openai": "o", "gemini": "g", "": "g"} {
		cfg.Model.Provider = provider
		if got := cfg.APIKey(); got != want {
			t.Errorf("APIKey(%q) = %q, want %q", provider, got, want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BLOOMCART_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BLOOMCART_TEST_DOTENV", "")
	os.Unsetenv("BLOOMCART_TEST_DOTENV")

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	if got := os.Getenv("BLOOMCART_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}
