package pipeline

import "github.com/foundry-app/foundry-go/internal/domain"

// recordFromVariation builds the durable record for the shortcut branch:
// exactly one variation selected, the combined stage never visited.
func recordFromVariation(v domain.Variation) domain.FinalizedIdeaRecord {
	return domain.FinalizedIdeaRecord{
		Title:           v.Title,
		Description:     v.Description,
		TargetMarket:    v.TargetMarket,
		SolutionConcept: v.Differentiator,
		Status:          domain.IdeaStatusDraft,
		AIFeedback: domain.AIFeedback{
			OriginalVariations: []domain.VariationFeedback{feedbackFor(v)},
		},
	}
}

// recordFromConcept builds the durable record when the founder finalized a
// combined concept. Every selected variation that fed the combination is
// recorded, including the aspects the founder liked about each.
func recordFromConcept(c domain.CombinedConcept, selected []domain.Variation) domain.FinalizedIdeaRecord {
	feedback := make([]domain.VariationFeedback, 0, len(selected))
	for _, v := range selected {
		feedback = append(feedback, feedbackFor(v))
	}
	return domain.FinalizedIdeaRecord{
		Title:           c.Title,
		Description:     c.Description,
		TargetMarket:    c.TargetMarket,
		SolutionConcept: c.ValueProposition,
		Status:          domain.IdeaStatusDraft,
		AIFeedback: domain.AIFeedback{
			OriginalVariations: feedback,
			CombinedConcept: &domain.ConceptSummary{
				ConceptID:        c.ID,
				Title:            c.Title,
				SourceElements:   append([]string(nil), c.SourceElements...),
				ValueProposition: c.ValueProposition,
			},
		},
	}
}

func feedbackFor(v domain.Variation) domain.VariationFeedback {
	return domain.VariationFeedback{
		VariationID:  v.ID,
		Title:        v.Title,
		LikedAspects: v.LikedAspects,
	}
}
