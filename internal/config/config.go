package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Search settings
	Query         string   `json:"query"`
	ProviderOrder []string `json:"provider_order"` // priority order, e.g. ["serper", "tavily"]
	SerperAPIKey  string   `json:"-"`              // Don't expose in JSON
	TavilyAPIKey  string   `json:"-"`
	MaxResults    int      `json:"max_results"` // per provider

	// LLM settings
	LLMAPIKey  string `json:"-"`
	LLMModel   string `json:"llm_model"`
	LLMBaseURL string `json:"llm_base_url"`

	// Telegram settings
	TelegramBotToken  string `json:"-"`
	TelegramChannelID string `json:"telegram_channel_id"`

	// Language settings
	CanonicalLanguage string            `json:"canonical_language"`
	TargetLanguages   []string          `json:"target_languages"` // stable section order
	LanguageNames     map[string]string `json:"language_names"`   // code -> display name

	// Report settings
	TopResults int    `json:"top_results"` // results fed into the summary prompt
	MaxImages  int    `json:"max_images"`
	OutputDir  string `json:"output_dir"`
	FontFile   string `json:"font_file"` // optional TTF for non-latin scripts

	// Pipeline settings
	SummaryRetries        int `json:"summary_retries"`
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	RunHistoryHours       int `json:"run_history_hours"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Host: getEnvOrDefault("HOST", "0.0.0.0"),

		Query:         getEnvOrDefault("SEARCH_QUERY", "US markets news last hour OR Wall Street today OR S&P 500 NASDAQ Dow Jones earnings"),
		ProviderOrder: parseStringSlice(getEnvOrDefault("SEARCH_PROVIDERS", "serper,tavily")),
		SerperAPIKey:  getEnvOrDefault("SERPER_API_KEY", ""),
		TavilyAPIKey:  getEnvOrDefault("TAVILY_API_KEY", ""),
		MaxResults:    getEnvOrDefaultInt("SEARCH_MAX_RESULTS", 5),

		LLMAPIKey:  getEnvOrDefault("LLM_API_KEY", ""),
		LLMModel:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL: getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),

		TelegramBotToken:  getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramChannelID: getEnvOrDefault("TELEGRAM_CHANNEL_ID", ""),

		CanonicalLanguage: getEnvOrDefault("CANONICAL_LANGUAGE", "en"),
		TargetLanguages:   parseStringSlice(getEnvOrDefault("TARGET_LANGUAGES", "ar,hi,he")),
		LanguageNames:     parseLanguageNames(getEnvOrDefault("LANGUAGE_NAMES", "en:English,ar:Arabic,hi:Hindi,he:Hebrew")),

		TopResults: getEnvOrDefaultInt("SUMMARY_TOP_RESULTS", 6),
		MaxImages:  getEnvOrDefaultInt("MAX_IMAGES", 2),
		OutputDir:  getEnvOrDefault("OUTPUT_DIR", "."),
		FontFile:   getEnvOrDefault("REPORT_FONT_FILE", ""),

		SummaryRetries:        getEnvOrDefaultInt("SUMMARY_RETRIES", 2),
		MaxConcurrentRequests: getEnvOrDefaultInt("MAX_CONCURRENT_REQUESTS", 3),
		RequestTimeoutSeconds: getEnvOrDefaultInt("REQUEST_TIMEOUT_SECONDS", 60),
		RunHistoryHours:       getEnvOrDefaultInt("RUN_HISTORY_HOURS", 72),
	}

	return config, config.validate()
}

// RequestTimeout returns the per-call timeout for external capabilities
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LanguageName returns the display name for a language code
func (c *Config) LanguageName(code string) string {
	if name, ok := c.LanguageNames[code]; ok {
		return name
	}
	return code
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.LLMAPIKey == "" {
		return &ConfigError{Field: "LLM_API_KEY", Message: "LLM API key is required"}
	}
	if c.SerperAPIKey == "" && c.TavilyAPIKey == "" {
		return &ConfigError{Field: "SERPER_API_KEY", Message: "at least one search provider API key is required"}
	}
	if len(c.ProviderOrder) == 0 {
		return &ConfigError{Field: "SEARCH_PROVIDERS", Message: "provider priority order must not be empty"}
	}
	for _, p := range c.ProviderOrder {
		if p != "serper" && p != "tavily" {
			return &ConfigError{Field: "SEARCH_PROVIDERS", Message: "unknown search provider: " + p}
		}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseLanguageNames parses "code:Name,code:Name" pairs into a map
func parseLanguageNames(value string) map[string]string {
	result := make(map[string]string)
	for _, pair := range parseStringSlice(value) {
		code, name, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code != "" && name != "" {
			result[code] = name
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
