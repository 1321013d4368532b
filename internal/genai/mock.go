package genai

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// MockClient is a deterministic stand-in for the generation service. It
// derives stable content from its inputs so local development and demos do
// not need model credentials.
type MockClient struct {
	profile Profile
}

func NewMockClient(profile Profile) *MockClient {
	return &MockClient{profile: profile}
}

var mockAngles = []struct {
	angle        string
	market       string
	revenueModel string
}{
	{"premium niche", "affluent early adopters", "subscription"},
	{"budget mass-market", "price-sensitive consumers", "volume sales"},
	{"b2b platform", "small businesses", "per-seat licensing"},
	{"community-driven", "hobbyist communities", "freemium with marketplace fees"},
	{"white-label service", "established brands", "service contracts"},
}

func (m *MockClient) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	count := m.profile.VariationCount
	if count < 2 {
		count = 2
	}
	variations := make([]domain.Variation, 0, count)
	for i := 0; i < count; i++ {
		angle := mockAngles[i%len(mockAngles)]
		variations = append(variations, domain.Variation{
			ID:             uuid.NewString(),
			Title:          fmt.Sprintf("%s (%s)", seed.Title, angle.angle),
			Description:    fmt.Sprintf("A %s take on %q.", angle.angle, seed.Title),
			Differentiator: angle.angle,
			TargetMarket:   angle.market,
			RevenueModel:   angle.revenueModel,
		})
	}
	return variations, nil
}

func (m *MockClient) RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error) {
	return domain.Variation{
		ID:             uuid.NewString(),
		Title:          fmt.Sprintf("%s (rethought)", seed.Title),
		Description:    fmt.Sprintf("A fresh take on %q, moving past %q.", seed.Title, prior.Title),
		Differentiator: "contrarian angle",
		TargetMarket:   prior.TargetMarket,
		RevenueModel:   prior.RevenueModel,
	}, nil
}

func (m *MockClient) GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error) {
	count := m.profile.ConceptCount
	if count < 1 {
		count = 1
	}
	elements := make([]string, 0, len(selected))
	for _, v := range selected {
		elements = append(elements, v.Differentiator)
	}
	concepts := make([]domain.CombinedConcept, 0, count)
	for i := 0; i < count; i++ {
		concepts = append(concepts, domain.CombinedConcept{
			ID:               uuid.NewString(),
			Title:            fmt.Sprintf("%s synthesis %d", baseTitle, i+1),
			Description:      fmt.Sprintf("Blend %d of the selected angles on %q.", len(selected), baseTitle),
			SourceElements:   append([]string(nil), elements...),
			TargetMarket:     selected[0].TargetMarket,
			RevenueModel:     selected[0].RevenueModel,
			ValueProposition: fmt.Sprintf("Combines %d proven angles into one offer.", len(selected)),
		})
	}
	return concepts, nil
}
