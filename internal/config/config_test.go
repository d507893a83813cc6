package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "OPENAI_MODEL", "AWS_REGION",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"MODEL_NAME", "MODEL_PERSONALITY", "MODEL_INTERESTS",
		"PREMIUM_CONTENT_PRICE", "CUSTOM_CONTENT_PRICE", "TIP_MINIMUM",
		"MAX_RESPONSE_LENGTH", "RESPONSE_TEMPERATURE",
		"PROGRESS_FILE", "PROGRESS_RESET_CRON", "SQLITE_PATH", "LOG_LEVEL", "MCP_PORT", "MCP_API_KEY", "SECRETS_PREFIX",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Persona.Name != "Your Name" || cfg.Persona.MaxResponseLength != 500 || cfg.Persona.PremiumPrice != 9.99 {
		t.Errorf("persona defaults = %+v", cfg.Persona)
	}
	if !reflect.DeepEqual(cfg.Persona.Personality, []string{"flirty", "playful", "engaging"}) {
		t.Errorf("personality = %v", cfg.Persona.Personality)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("provider = %q", cfg.LLM.Provider)
	}
	if cfg.Progress.File != "weekly_progress.json" || cfg.Database.SQLitePath != "data/creatorpilot.db" || cfg.Log.Level != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without an API key")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "creatorpilot.yaml", `
persona:
  name: Luna
  personality: [sweet, witty]
  custom_price: 49.5
  max_response_length: 280
llm:
  provider: Anthropic
  model: sonnet
progress:
  file: data/week.json
mcp:
  port: "8080"
`)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("MODEL_INTERESTS", "yoga, travel ,")
	t.Setenv("TIP_MINIMUM", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Persona.Name != "Luna" || cfg.Persona.CustomPrice != 49.5 || cfg.Persona.MaxResponseLength != 280 {
		t.Errorf("persona = %+v", cfg.Persona)
	}
	if !reflect.DeepEqual(cfg.Persona.Interests, []string{"yoga", "travel"}) {
		t.Errorf("interests = %v", cfg.Persona.Interests)
	}
	if cfg.Persona.TipMinimum != 10 || cfg.Persona.PremiumPrice != 9.99 {
		t.Errorf("prices = %+v", cfg.Persona)
	}
	opts := cfg.LLMOptions()
	if opts.Provider != "anthropic" || opts.Model != "sonnet" || opts.APIKey != "sk-ant-test" {
		t.Errorf("llm options = %+v", opts)
	}
	if cfg.MCP.Port != "8080" || cfg.Progress.File != "data/week.json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidInputs(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, "bad.yaml", "persona: [unclosed")
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
	t.Run("bad number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_RESPONSE_LENGTH", "lots")
		if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
			t.Error("expected error for non-numeric MAX_RESPONSE_LENGTH")
		}
	})
	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "telepathy")
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

func TestValidate_OfflineNeedsNoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "offline")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("offline config invalid: %v", err)
	}
}

func TestValidate_ResetCron(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "offline")

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"", false},
		{"@weekly", false},
		{"0 0 * * 1", false},
		{"0 0 0 * * 1", true},
		{"mondays", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Setenv("PROGRESS_RESET_CRON", tt.spec)
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryEnabled(t *testing.T) {
	cfg := &Config{}
	cfg.Database.SQLitePath = "off"
	if cfg.HistoryEnabled() {
		t.Error("off should disable history")
	}
	cfg.Database.SQLitePath = "data/x.db"
	if !cfg.HistoryEnabled() {
		t.Error("path should enable history")
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "MODEL_NAME=Dotenv Star\nOPENAI_API_KEY=sk-from-file\n")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	if err := LoadDotenv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MODEL_NAME") })

	if got := os.Getenv("MODEL_NAME"); got != "Dotenv Star" {
		t.Errorf("MODEL_NAME = %q", got)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "sk-from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	v, ok := f[aws.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestLoadSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "already-set")
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("MCP_API_KEY")
	})

	secrets := fakeSecrets{
		"creatorpilot/OPENAI_API_KEY":    "sk-secret",
		"creatorpilot/ANTHROPIC_API_KEY": "should-not-be-used",
		"creatorpilot/MCP_API_KEY":       "mcp-token",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := loadSecrets(context.Background(), secrets, "creatorpilot/", logger); err != nil {
		t.Fatalf("loadSecrets: %v", err)
	}

	if got := os.Getenv("OPENAI_API_KEY"); got != "sk-secret" {
		t.Errorf("OPENAI_API_KEY = %q", got)
	}
	if got := os.Getenv("ANTHROPIC_API_KEY"); got != "already-set" {
		t.Errorf("ANTHROPIC_API_KEY = %q", got)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "" {
		t.Errorf("GEMINI_API_KEY = %q, want unset", got)
	}

	cfg := &Config{}
	cfg.LLM.Provider = "openai"
	cfg.ResolveAPIKey()
	if cfg.LLM.APIKey != "sk-secret" || cfg.MCP.APIKey != "mcp-token" {
		t.Errorf("resolved keys = %q, %q", cfg.LLM.APIKey, cfg.MCP.APIKey)
	}
}
