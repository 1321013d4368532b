package genai

import (
	"fmt"
	"strings"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// BuildVariationPrompt asks for a full batch of variations on the seed.
func BuildVariationPrompt(seed domain.SeedIdea, profile Profile) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Business idea: %s\n", seed.Title)
	if strings.TrimSpace(seed.Inspiration) != "" {
		fmt.Fprintf(&sb, "Inspiration/context: %s\n", seed.Inspiration)
	}
	if strings.TrimSpace(seed.ConceptType) != "" {
		fmt.Fprintf(&sb, "Concept type: %s\n", seed.ConceptType)
	}
	fmt.Fprintf(&sb, "\nPropose exactly %d distinct variations of this idea.\n", profile.VariationCount)
	sb.WriteString(variationSchemaInstructions)

	return Prompt{System: profile.VariationSystemPrompt, User: sb.String()}
}

// BuildRegenerationPrompt asks for a single replacement variation. The prior
// variation's content rides along as additional inspiration context, the
// same way the seed's own inspiration does.
func BuildRegenerationPrompt(seed domain.SeedIdea, prior domain.Variation, profile Profile) Prompt {
	annotated := seed
	var ctxNote strings.Builder
	if strings.TrimSpace(seed.Inspiration) != "" {
		ctxNote.WriteString(seed.Inspiration)
		ctxNote.WriteString("\n")
	}
	fmt.Fprintf(&ctxNote, "A previous take on this idea was %q: %s (differentiator: %s). Offer a different take.",
		prior.Title, prior.Description, prior.Differentiator)
	annotated.Inspiration = ctxNote.String()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Business idea: %s\n", annotated.Title)
	fmt.Fprintf(&sb, "Inspiration/context: %s\n", annotated.Inspiration)
	if strings.TrimSpace(annotated.ConceptType) != "" {
		fmt.Fprintf(&sb, "Concept type: %s\n", annotated.ConceptType)
	}
	sb.WriteString("\nPropose exactly 1 variation of this idea.\n")
	sb.WriteString(variationSchemaInstructions)

	return Prompt{System: profile.VariationSystemPrompt, User: sb.String()}
}

// BuildCombinationPrompt asks for concepts synthesized from the selected
// variations, weighting the aspects the founder called out on each.
func BuildCombinationPrompt(baseTitle string, selected []domain.Variation, profile Profile) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Base idea: %s\n\nThe founder selected these variations:\n", baseTitle)
	for i, v := range selected {
		fmt.Fprintf(&sb, "%d. %s: %s (differentiator: %s; target market: %s; revenue model: %s)\n",
			i+1, v.Title, v.Description, v.Differentiator, v.TargetMarket, v.RevenueModel)
		if strings.TrimSpace(v.LikedAspects) != "" {
			fmt.Fprintf(&sb, "   What the founder liked: %s\n", v.LikedAspects)
		}
	}
	fmt.Fprintf(&sb, "\nCombine them into exactly %d refined concepts that keep what the founder liked.\n", profile.ConceptCount)
	sb.WriteString(conceptSchemaInstructions)

	return Prompt{System: profile.CombinationSystemPrompt, User: sb.String()}
}

const variationSchemaInstructions = `Respond with a JSON array. Each element must have these string fields:
"title", "description", "differentiator", "target_market", "revenue_model".
`

const conceptSchemaInstructions = `Respond with a JSON array. Each element must have these fields:
"title" (string), "description" (string), "source_elements" (array of strings naming the
differentiators carried over), "target_market" (string), "revenue_model" (string),
"value_proposition" (string).
`
