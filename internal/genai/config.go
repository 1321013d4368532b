package genai

import (
	"fmt"
	"strings"
	"time"

	"github.com/foundry-app/foundry-go/internal/platform/env"
)

type ClientMode string

const (
	ClientModeOpenAI ClientMode = "openai"
	ClientModeMock   ClientMode = "mock"
)

type Config struct {
	Mode        ClientMode
	APIKey      string
	BaseURL     string
	ProfilePath string
	Timeout     time.Duration
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("FOUNDRY_GENAI_MODE", string(ClientModeMock))))
	var mode ClientMode
	switch modeRaw {
	case string(ClientModeOpenAI):
		mode = ClientModeOpenAI
	case string(ClientModeMock):
		mode = ClientModeMock
	default:
		return Config{}, fmt.Errorf("FOUNDRY_GENAI_MODE must be one of: openai, mock (got %q)", modeRaw)
	}

	timeout, err := env.Duration("FOUNDRY_GENERATION_TIMEOUT", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("FOUNDRY_GENERATION_TIMEOUT must be positive")
	}

	return Config{
		Mode:        mode,
		APIKey:      env.String("FOUNDRY_OPENAI_API_KEY", ""),
		BaseURL:     env.String("FOUNDRY_OPENAI_BASE_URL", ""),
		ProfilePath: env.String("FOUNDRY_GENAI_PROFILE", ""),
		Timeout:     timeout,
	}, nil
}

// ResolveProfile returns the operator-supplied profile when configured,
// otherwise the built-in default.
func (c Config) ResolveProfile() (Profile, error) {
	if strings.TrimSpace(c.ProfilePath) == "" {
		return DefaultProfile(), nil
	}
	return LoadProfile(c.ProfilePath)
}
