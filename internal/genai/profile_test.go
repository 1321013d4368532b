package genai

import (
	"context"
	"strings"
	"testing"

	"github.com/foundry-app/foundry-go/internal/domain"
)

func TestDefaultProfileIsValid(t *testing.T) {
	if err := DefaultProfile().Validate(); err != nil {
		t.Fatalf("DefaultProfile().Validate() err=%v", err)
	}
}

func TestParseProfile(t *testing.T) {
	raw := []byte(`
schema: foundry.ideation.v1
model: gpt-4o
variation_count: 4
concept_count: 2
variation_system_prompt: "Propose angles. JSON only."
combination_system_prompt: "Synthesize angles. JSON only."
`)
	profile, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile() err=%v", err)
	}
	if profile.Model != "gpt-4o" {
		t.Fatalf("model=%q", profile.Model)
	}
	if profile.VariationCount != 4 {
		t.Fatalf("variation_count=%d", profile.VariationCount)
	}
}

func TestParseProfileRejectsBadSchema(t *testing.T) {
	raw := []byte(`
schema: foundry.ideation.v2
model: gpt-4o
variation_count: 3
concept_count: 3
variation_system_prompt: x
combination_system_prompt: y
`)
	if _, err := ParseProfile(raw); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestParseProfileRejectsLowCounts(t *testing.T) {
	raw := []byte(`
schema: foundry.ideation.v1
model: gpt-4o
variation_count: 1
concept_count: 3
variation_system_prompt: x
combination_system_prompt: y
`)
	if _, err := ParseProfile(raw); err == nil {
		t.Fatalf("expected variation_count error")
	}
}

func TestBuildCombinationPromptIncludesLikedAspects(t *testing.T) {
	selected := []domain.Variation{
		{Title: "A", Differentiator: "premium", LikedAspects: "the couture angle"},
		{Title: "B", Differentiator: "subscription"},
	}
	prompt := BuildCombinationPrompt("Tutus for ponies", selected, DefaultProfile())
	if !strings.Contains(prompt.User, "the couture angle") {
		t.Fatalf("prompt missing liked aspects: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "Tutus for ponies") {
		t.Fatalf("prompt missing base title")
	}
}

func TestBuildRegenerationPromptCarriesPriorContent(t *testing.T) {
	seed := domain.SeedIdea{Title: "Tutus for ponies"}
	prior := domain.Variation{Title: "Pony boutique", Description: "High-end tutus", Differentiator: "premium"}
	prompt := BuildRegenerationPrompt(seed, prior, DefaultProfile())
	if !strings.Contains(prompt.User, "Pony boutique") {
		t.Fatalf("prompt missing prior title: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "exactly 1 variation") {
		t.Fatalf("prompt should ask for a single variation")
	}
}

func TestMockClientIsDeterministicInShape(t *testing.T) {
	mock := NewMockClient(DefaultProfile())
	seed := domain.SeedIdea{Title: "Tutus for ponies"}

	variations, err := mock.GenerateVariations(context.Background(), seed)
	if err != nil {
		t.Fatalf("GenerateVariations() err=%v", err)
	}
	if len(variations) != DefaultProfile().VariationCount {
		t.Fatalf("len=%d, want %d", len(variations), DefaultProfile().VariationCount)
	}

	concepts, err := mock.GenerateCombinedConcepts(context.Background(), seed.Title, variations[:2])
	if err != nil {
		t.Fatalf("GenerateCombinedConcepts() err=%v", err)
	}
	if len(concepts) != DefaultProfile().ConceptCount {
		t.Fatalf("len=%d, want %d", len(concepts), DefaultProfile().ConceptCount)
	}
	if len(concepts[0].SourceElements) != 2 {
		t.Fatalf("source elements=%v", concepts[0].SourceElements)
	}
}
