package archive

import (
	"context"
	"log/slog"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/genai"
)

// TranscriptWriter is the archive surface the recorder needs.
type TranscriptWriter interface {
	Put(ctx context.Context, transcript Transcript) (string, error)
}

// RecordingClient decorates a generation client with transcript archival.
// Archiving is best effort: a failed write is logged and the generation
// result is returned regardless.
type RecordingClient struct {
	inner     genai.Client
	store     TranscriptWriter
	logger    *slog.Logger
	sessionID string
}

func NewRecordingClient(inner genai.Client, store TranscriptWriter, logger *slog.Logger, sessionID string) *RecordingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingClient{inner: inner, store: store, logger: logger, sessionID: sessionID}
}

func (c *RecordingClient) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	variations, err := c.inner.GenerateVariations(ctx, seed)
	c.record(ctx, Transcript{
		SessionID:  c.sessionID,
		Kind:       KindVariations,
		Seed:       &seed,
		Variations: variations,
		Error:      errString(err),
	})
	return variations, err
}

func (c *RecordingClient) RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error) {
	replacement, err := c.inner.RegenerateVariation(ctx, seed, prior)
	transcript := Transcript{
		SessionID: c.sessionID,
		Kind:      KindRegenerate,
		Seed:      &seed,
		Prior:     &prior,
		Error:     errString(err),
	}
	if err == nil {
		transcript.Variations = []domain.Variation{replacement}
	}
	c.record(ctx, transcript)
	return replacement, err
}

func (c *RecordingClient) GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error) {
	concepts, err := c.inner.GenerateCombinedConcepts(ctx, baseTitle, selected)
	c.record(ctx, Transcript{
		SessionID:  c.sessionID,
		Kind:       KindCombination,
		SelectedIn: selected,
		Concepts:   concepts,
		Error:      errString(err),
	})
	return concepts, err
}

func (c *RecordingClient) record(ctx context.Context, transcript Transcript) {
	if c.store == nil {
		return
	}
	key, err := c.store.Put(ctx, transcript)
	if err != nil {
		c.logger.Warn("transcript archive failed",
			"session_id", c.sessionID,
			"kind", transcript.Kind,
			"error", err)
		return
	}
	c.logger.Debug("transcript archived", "session_id", c.sessionID, "key", key)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
