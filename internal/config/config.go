// Package config loads creatorpilot settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "creatorpilot.yaml"

// Config holds all application configuration.
type Config struct {
	Persona persona.Persona `yaml:"persona"`
	LLM     struct {
		Provider string `yaml:"provider"` // anthropic, openai, gemini, bedrock, offline
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
		Region   string `yaml:"region"`
	} `yaml:"llm"`
	Progress struct {
		File      string `yaml:"file"`
		ResetCron string `yaml:"reset_cron"` // e.g. "@weekly"; empty disables
	} `yaml:"progress"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // "off" disables history
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	MCP struct {
		Port   string `yaml:"port"`    // empty serves over stdio
		APIKey string `yaml:"api_key"` // bearer token required over HTTP
	} `yaml:"mcp"`
	Secrets struct {
		Prefix string `yaml:"prefix"` // Secrets Manager ID prefix; empty disables
	} `yaml:"secrets"`
}

// providerKeyEnv names the environment variable holding each provider's key.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// LoadDotenv loads KEY=value files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setList := func(dst *[]string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	setFloat := func(dst *float64, key string) error {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = f
		}
		return nil
	}

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	if c.LLM.Model == "" {
		setString(&c.LLM.Model, "OPENAI_MODEL")
	}
	setString(&c.LLM.Region, "AWS_REGION")

	setString(&c.Persona.Name, "MODEL_NAME")
	setList(&c.Persona.Personality, "MODEL_PERSONALITY")
	setList(&c.Persona.Interests, "MODEL_INTERESTS")
	if err := setFloat(&c.Persona.PremiumPrice, "PREMIUM_CONTENT_PRICE"); err != nil {
		return err
	}
	if err := setFloat(&c.Persona.CustomPrice, "CUSTOM_CONTENT_PRICE"); err != nil {
		return err
	}
	if err := setFloat(&c.Persona.TipMinimum, "TIP_MINIMUM"); err != nil {
		return err
	}
	if err := setFloat(&c.Persona.Temperature, "RESPONSE_TEMPERATURE"); err != nil {
		return err
	}
	if v := os.Getenv("MAX_RESPONSE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RESPONSE_LENGTH %q: %w", v, err)
		}
		c.Persona.MaxResponseLength = n
	}

	setString(&c.Progress.File, "PROGRESS_FILE")
	setString(&c.Progress.ResetCron, "PROGRESS_RESET_CRON")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.MCP.Port, "MCP_PORT")
	setString(&c.MCP.APIKey, "MCP_API_KEY")
	setString(&c.Secrets.Prefix, "SECRETS_PREFIX")
	return nil
}

func (c *Config) applyDefaults() {
	def := persona.Default()
	p := &c.Persona
	if p.Name == "" {
		p.Name = def.Name
	}
	if len(p.Personality) == 0 {
		p.Personality = def.Personality
	}
	if len(p.Interests) == 0 {
		p.Interests = def.Interests
	}
	if p.PremiumPrice == 0 {
		p.PremiumPrice = def.PremiumPrice
	}
	if p.CustomPrice == 0 {
		p.CustomPrice = def.CustomPrice
	}
	if p.TipMinimum == 0 {
		p.TipMinimum = def.TipMinimum
	}
	if p.MaxResponseLength == 0 {
		p.MaxResponseLength = def.MaxResponseLength
	}
	if p.Temperature == 0 {
		p.Temperature = def.Temperature
	}

	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	c.ResolveAPIKey()

	if c.Progress.File == "" {
		c.Progress.File = "weekly_progress.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/creatorpilot.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ResolveAPIKey fills the provider key from the environment when the config
// file did not set one. Call it again after secrets are loaded.
func (c *Config) ResolveAPIKey() {
	if c.MCP.APIKey == "" {
		c.MCP.APIKey = os.Getenv("MCP_API_KEY")
	}
	if c.LLM.APIKey != "" {
		return
	}
	if env, ok := providerKeyEnv[c.LLM.Provider]; ok {
		c.LLM.APIKey = os.Getenv(env)
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%s must be set for llm.provider %q (or use --offline)", providerKeyEnv[c.LLM.Provider], c.LLM.Provider)
		}
	case "bedrock", "offline":
	default:
		return fmt.Errorf("llm.provider %q is not supported (valid: anthropic, openai, gemini, bedrock, offline)", c.LLM.Provider)
	}
	if err := c.Persona.Validate(); err != nil {
		return err
	}
	if c.Progress.File == "" {
		return fmt.Errorf("progress.file is required")
	}
	if c.Progress.ResetCron != "" {
		if _, err := cron.ParseStandard(c.Progress.ResetCron); err != nil {
			return fmt.Errorf("progress.reset_cron %q: %w", c.Progress.ResetCron, err)
		}
	}
	return nil
}

// HistoryEnabled reports whether interaction history should be stored.
func (c *Config) HistoryEnabled() bool {
	return c.Database.SQLitePath != "" && c.Database.SQLitePath != "off"
}

// LLMOptions returns the generator settings.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		Region:   c.LLM.Region,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
