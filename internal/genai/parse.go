package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry-go/internal/domain"
)

type variationPayload struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Differentiator string `json:"differentiator"`
	TargetMarket   string `json:"target_market"`
	RevenueModel   string `json:"revenue_model"`
}

type conceptPayload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	SourceElements   []string `json:"source_elements"`
	TargetMarket     string   `json:"target_market"`
	RevenueModel     string   `json:"revenue_model"`
	ValueProposition string   `json:"value_proposition"`
}

func parseVariations(raw string) ([]domain.Variation, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, errors.New("model returned empty output")
	}

	var payloads []variationPayload
	if err := json.Unmarshal([]byte(body), &payloads); err != nil {
		return nil, fmt.Errorf("model output is not a variation array: %w", err)
	}
	if len(payloads) == 0 {
		return nil, errors.New("model returned no variations")
	}

	variations := make([]domain.Variation, 0, len(payloads))
	for i, p := range payloads {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("variation %d is missing a title", i)
		}
		variations = append(variations, domain.Variation{
			ID:             uuid.NewString(),
			Title:          strings.TrimSpace(p.Title),
			Description:    strings.TrimSpace(p.Description),
			Differentiator: strings.TrimSpace(p.Differentiator),
			TargetMarket:   strings.TrimSpace(p.TargetMarket),
			RevenueModel:   strings.TrimSpace(p.RevenueModel),
		})
	}
	return variations, nil
}

func parseCombinedConcepts(raw string) ([]domain.CombinedConcept, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, errors.New("model returned empty output")
	}

	var payloads []conceptPayload
	if err := json.Unmarshal([]byte(body), &payloads); err != nil {
		return nil, fmt.Errorf("model output is not a concept array: %w", err)
	}
	if len(payloads) == 0 {
		return nil, errors.New("model returned no concepts")
	}

	concepts := make([]domain.CombinedConcept, 0, len(payloads))
	for i, p := range payloads {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("concept %d is missing a title", i)
		}
		concepts = append(concepts, domain.CombinedConcept{
			ID:               uuid.NewString(),
			Title:            strings.TrimSpace(p.Title),
			Description:      strings.TrimSpace(p.Description),
			SourceElements:   p.SourceElements,
			TargetMarket:     strings.TrimSpace(p.TargetMarket),
			RevenueModel:     strings.TrimSpace(p.RevenueModel),
			ValueProposition: strings.TrimSpace(p.ValueProposition),
		})
	}
	return concepts, nil
}

// stripFences tolerates models that wrap JSON in a markdown code fence
// despite instructions.
func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
