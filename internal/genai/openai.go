package genai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// OpenAIClient implements Client using the official openai-go SDK
// (chat completions).
type OpenAIClient struct {
	profile Profile
	opts    []option.RequestOption
}

func NewOpenAIClient(cfg Config, profile Profile) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set FOUNDRY_OPENAI_API_KEY")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{profile: profile, opts: opts}, nil
}

func (c *OpenAIClient) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	raw, err := c.complete(ctx, BuildVariationPrompt(seed, c.profile))
	if err != nil {
		return nil, err
	}
	return parseVariations(raw)
}

func (c *OpenAIClient) RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error) {
	raw, err := c.complete(ctx, BuildRegenerationPrompt(seed, prior, c.profile))
	if err != nil {
		return domain.Variation{}, err
	}
	variations, err := parseVariations(raw)
	if err != nil {
		return domain.Variation{}, err
	}
	return variations[0], nil
}

func (c *OpenAIClient) GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error) {
	raw, err := c.complete(ctx, BuildCombinationPrompt(baseTitle, selected, c.profile))
	if err != nil {
		return nil, err
	}
	return parseCombinedConcepts(raw)
}

func (c *OpenAIClient) complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(c.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.profile.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
