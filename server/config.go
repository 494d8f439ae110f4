package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the relay server configuration. Values come from built-in
// defaults, then an optional TOML file, then environment variables, with
// later sources winning.
type Config struct {
	// ListenAddr is the address the HTTP server binds (e.g. ":8000").
	ListenAddr string `toml:"listen_addr"`

	// DBPath is the path to the SQLite database file.
	// Empty selects an in-memory history store.
	DBPath string `toml:"db_path"`

	// Twilio WhatsApp credentials and sender address.
	TwilioAccountSID     string `toml:"twilio_account_sid"`
	TwilioAuthToken      string `toml:"twilio_auth_token"`
	TwilioWhatsAppNumber string `toml:"twilio_whatsapp_number"`

	// Gemini API key and model name.
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`

	// AdminToken guards the destructive admin endpoints. When empty those
	// endpoints refuse every request.
	AdminToken string `toml:"admin_token"`

	Debug    bool   `toml:"debug"`
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:           ":8000",
		TwilioWhatsAppNumber: "whatsapp:+14155238886",
		GeminiModel:          "gemini-1.5-flash",
		LogLevel:             "info",
	}
}

// LoadConfig assembles the configuration: a best-effort .env load, defaults,
// the TOML file at path (when non-empty), then environment overrides.
func LoadConfig(path string) (Config, error) {
	// Missing .env is fine; explicit environment always wins anyway.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.TwilioWhatsAppNumber, "TWILIO_WHATSAPP_NUMBER")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.AdminToken, "ADMIN_TOKEN")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate returns an error naming every missing required field so startup
// fails loudly instead of limping along without credentials.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TwilioAccountSID) == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if strings.TrimSpace(c.TwilioAuthToken) == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
