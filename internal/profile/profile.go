package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/arozco/mesero/catalog"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM collaborator configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, ollama
	LLMAPIKey   string // API key; empty disables the collaborator
	LLMBaseURL  string // Base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 30)

	// Data sources.
	MenuPath   string // menu CSV (Item, Category, Price, Serving Size)
	CitiesPath string // delivery cities CSV (City column)

	// OrderableCategories restricts which menu categories can be ordered
	// through the chat. Empty means every category is orderable.
	OrderableCategories []string

	// Server configuration.
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string

	// Session handling.
	SessionIdleMinutes int // idle minutes before a chat session is evicted
	RateLimitRPS       int // per-client requests per second on the chat endpoint
}

// Provider default configurations for the LLM collaborator.
// Used when MESERO_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("MESERO_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("MESERO_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("MESERO_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("MESERO_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("MESERO_LLM_TIMEOUT_SECONDS", 30)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.OrderableCategories = splitCategories(os.Getenv("MESERO_ORDERABLE_CATEGORIES"))

	p.SessionIdleMinutes = getEnvOrDefaultInt("MESERO_SESSION_IDLE_MINUTES", 30)
	p.RateLimitRPS = getEnvOrDefaultInt("MESERO_RATE_LIMIT_RPS", 5)
}

// splitCategories parses a comma-separated category list. Empty input means
// no restriction.
func splitCategories(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("mesero_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a dsn")
	}

	if p.MenuPath == "" {
		p.MenuPath = filepath.Join(dataDir, "menu.csv")
	}
	if p.CitiesPath == "" {
		p.CitiesPath = filepath.Join(dataDir, "us-cities.csv")
	}

	for _, c := range p.OrderableCategories {
		if !catalog.IsAllowedCategory(c) {
			return errors.Errorf("unknown orderable category %q", c)
		}
	}

	return nil
}
