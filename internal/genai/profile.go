package genai

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const ProfileSchemaV1 = "foundry.ideation.v1"

// Profile is the declarative tuning surface for idea generation: which
// model to call, how many items to ask for, and the system prompts framing
// each call. Operators may override the built-in default with a YAML file.
type Profile struct {
	Schema         string `yaml:"schema"`
	Model          string `yaml:"model"`
	VariationCount int    `yaml:"variation_count"`
	ConceptCount   int    `yaml:"concept_count"`

	VariationSystemPrompt   string `yaml:"variation_system_prompt"`
	CombinationSystemPrompt string `yaml:"combination_system_prompt"`
}

func DefaultProfile() Profile {
	return Profile{
		Schema:         ProfileSchemaV1,
		Model:          "gpt-4o-mini",
		VariationCount: 3,
		ConceptCount:   3,
		VariationSystemPrompt: "You are a startup coach helping a founder explore a raw business idea. " +
			"Propose distinct, concrete angles on the idea. Respond with JSON only, no prose.",
		CombinationSystemPrompt: "You are a startup coach synthesizing the angles a founder selected into " +
			"refined business concepts. Respond with JSON only, no prose.",
	}
}

func ParseProfile(input []byte) (Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(input, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(raw)
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Schema) != ProfileSchemaV1 {
		return fmt.Errorf("profile.schema must be %q", ProfileSchemaV1)
	}
	if strings.TrimSpace(p.Model) == "" {
		return errors.New("profile.model is required")
	}
	if p.VariationCount < 2 {
		return errors.New("profile.variation_count must be >= 2")
	}
	if p.ConceptCount < 1 {
		return errors.New("profile.concept_count must be >= 1")
	}
	if strings.TrimSpace(p.VariationSystemPrompt) == "" {
		return errors.New("profile.variation_system_prompt is required")
	}
	if strings.TrimSpace(p.CombinationSystemPrompt) == "" {
		return errors.New("profile.combination_system_prompt is required")
	}
	return nil
}
