package genai

import (
	"context"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// Client is the idea-generation boundary. Implementations return plain
// errors with human-readable messages; the pipeline wraps them into its own
// error taxonomy. Returned items carry fresh ids and cleared
// selection/editing flags.
type Client interface {
	// GenerateVariations proposes a batch of distinct angles on the seed.
	GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error)

	// RegenerateVariation reworks a single variation. The prior content is
	// passed as extra inspiration context; whether the model varies it
	// further or replaces it outright is up to the model.
	RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error)

	// GenerateCombinedConcepts synthesizes the selected variations (and the
	// aspects the founder liked about each) into refined concepts.
	GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error)
}

// Prompt is one request to the underlying model.
type Prompt struct {
	System string
	User   string
}
