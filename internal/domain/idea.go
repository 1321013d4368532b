package domain

import (
	"errors"
	"strings"
	"time"
)

// SeedIdea is the founder's starting point for a refinement run. It is
// immutable once variations have been generated; going back to the initial
// stage makes it editable again.
type SeedIdea struct {
	Title       string
	Inspiration string
	ConceptType string
}

func (s SeedIdea) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("seed title is required")
	}
	return nil
}

// Variation is one generated angle on the seed idea. Variations support
// multi-select; the edit buffer lives outside this struct so canonical
// fields only change on an explicit save.
type Variation struct {
	ID             string
	Title          string
	Description    string
	Differentiator string
	TargetMarket   string
	RevenueModel   string
	Selected       bool
	Editing        bool
	LikedAspects   string
}

// CombinedConcept is a synthesis of two or more selected variations.
// Unlike variations, at most one combined concept may be selected.
type CombinedConcept struct {
	ID               string
	Title            string
	Description      string
	SourceElements   []string
	TargetMarket     string
	RevenueModel     string
	ValueProposition string
	Selected         bool
	Editing          bool
}

const IdeaStatusDraft = "draft"

// VariationFeedback captures what the founder kept from one selected
// variation, recorded on the finalized idea for later coaching context.
type VariationFeedback struct {
	VariationID  string `json:"variation_id"`
	Title        string `json:"title"`
	LikedAspects string `json:"liked_aspects"`
}

// ConceptSummary snapshots the winning combined concept, when the idea was
// finalized from the combined stage.
type ConceptSummary struct {
	ConceptID        string   `json:"concept_id"`
	Title            string   `json:"title"`
	SourceElements   []string `json:"source_elements"`
	ValueProposition string   `json:"value_proposition"`
}

// AIFeedback is the audit payload persisted alongside a finalized idea.
type AIFeedback struct {
	OriginalVariations []VariationFeedback `json:"original_variations"`
	CombinedConcept    *ConceptSummary     `json:"combined_concept,omitempty"`
}

// FinalizedIdeaRecord is the single durable output of a refinement run.
type FinalizedIdeaRecord struct {
	ID              string
	Title           string
	Description     string
	TargetMarket    string
	SolutionConcept string
	Status          string
	AIFeedback      AIFeedback
	CreatedAt       time.Time
	CreatedBy       string
}

func (r FinalizedIdeaRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("idea id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("idea title is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		return errors.New("idea status is required")
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("idea creator is required")
	}
	if len(r.AIFeedback.OriginalVariations) == 0 {
		return errors.New("idea must record at least one source variation")
	}
	return nil
}
