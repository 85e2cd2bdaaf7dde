package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// APIKeyEnv is the conventional variable holding the xAI key.
	APIKeyEnv = "XAI_API_KEY"
	EnvPrefix = "XAI_CHAT"

	DefaultURL   = "https://api.x.ai/v1"
	DefaultModel = "grok-beta"
	DefaultType  = "openai"

	DefaultSystemPrompt = "You are Grok, a chatbot inspired by the Hitchhiker's Guide to the Galaxy."
	DefaultUserPrompt   = "What is the meaning of life, the universe, and everything?"

	DefaultNavigatorSystemPrompt = "You are a helpful webpage navigation assistant. Use the supplied tools to assist the user."
	DefaultNavigatorUserPrompt   = "Hi, can you go to the career page of the xAI website?"
)

// DefaultEnvFile is one directory above the invocation directory.
var DefaultEnvFile = filepath.Join("..", ".env")

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Navigator NavigatorConfig `mapstructure:"navigator"`
}

type LLMConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
	Token string `mapstructure:"token"`
	Type  string `mapstructure:"type"`
}

type ChatConfig struct {
	System string `mapstructure:"system"`
	Prompt string `mapstructure:"prompt"`
	Output string `mapstructure:"output"`
	Style  string `mapstructure:"style"`
}

type NavigatorConfig struct {
	Model        string        `mapstructure:"model"`
	System       string        `mapstructure:"system"`
	Prompt       string        `mapstructure:"prompt"`
	MaxTurns     int           `mapstructure:"max_turns"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.url", DefaultURL)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.type", DefaultType)
	v.SetDefault("chat.system", DefaultSystemPrompt)
	v.SetDefault("chat.prompt", DefaultUserPrompt)
	v.SetDefault("chat.output", "json")
	v.SetDefault("chat.style", "dark")
	v.SetDefault("navigator.system", DefaultNavigatorSystemPrompt)
	v.SetDefault("navigator.prompt", DefaultNavigatorUserPrompt)
	v.SetDefault("navigator.max_turns", 10)
	v.SetDefault("navigator.fetch_timeout", 10*time.Second)
}

// BindEnv maps XAI_CHAT_<SECTION>_<KEY> onto config keys. The API key may
// also come from XAI_API_KEY.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.token", EnvPrefix+"_LLM_TOKEN", APIKeyEnv); err != nil {
		return fmt.Errorf("bind %s: %w", APIKeyEnv, err)
	}
	return nil
}

// LoadEnvFile populates the process environment from a KEY=VALUE file.
// Variables already set to a non-empty value are left alone; empty ones are
// treated as unset, matching how the key lookup reads them. A missing file is
// only an error when required is set.
func LoadEnvFile(path string, required bool) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &Error{Field: "env-file", Err: fmt.Errorf("load %s: %w", path, err)}
	}
	for key, value := range values {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return &Error{Field: "env-file", Err: fmt.Errorf("set %s: %w", key, err)}
		}
	}
	return nil
}

func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (Config, error) {
	var cfg Config
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return cfg, err
	}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values that do not depend on command-line overrides.
// The API key is checked by LLMConfig.Validate once overrides are applied.
func (c Config) Validate() error {
	if err := validateType(c.LLM.Type); err != nil {
		return err
	}
	switch c.Chat.Output {
	case "", "json", "text", "markdown":
	default:
		return invalid("chat.output", c.Chat.Output)
	}
	if c.Navigator.MaxTurns <= 0 {
		return &Error{Field: "navigator.max_turns", Err: fmt.Errorf("%w: must be > 0", ErrInvalid)}
	}
	if c.Navigator.FetchTimeout < 0 {
		return &Error{Field: "navigator.fetch_timeout", Err: fmt.Errorf("%w: must not be negative", ErrInvalid)}
	}
	return nil
}

// Validate reports whether the client settings are complete enough to
// issue a request.
func (c LLMConfig) Validate() error {
	if err := validateType(c.Type); err != nil {
		return err
	}
	if strings.TrimSpace(c.Token) == "" {
		return &Error{Field: "llm.token", Err: ErrMissingAPIKey}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &Error{Field: "llm.model", Err: fmt.Errorf("%w: model is required", ErrInvalid)}
	}
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("llm.url", c.URL)
	}
	return nil
}

func validateType(t string) error {
	switch t {
	case "", "openai", "go-openai":
		return nil
	default:
		return invalid("llm.type", t)
	}
}
