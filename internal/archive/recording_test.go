package archive

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/foundry-app/foundry-go/internal/domain"
)

type fakeWriter struct {
	transcripts []Transcript
	err         error
}

func (w *fakeWriter) Put(ctx context.Context, transcript Transcript) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.transcripts = append(w.transcripts, transcript)
	return "sessions/test/" + transcript.Kind + ".json", nil
}

type stubGen struct {
	variations []domain.Variation
	concepts   []domain.CombinedConcept
	err        error
}

func (g *stubGen) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	return g.variations, g.err
}

func (g *stubGen) RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error) {
	if g.err != nil {
		return domain.Variation{}, g.err
	}
	return g.variations[0], nil
}

func (g *stubGen) GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error) {
	return g.concepts, g.err
}

func TestRecordingClientArchivesVariations(t *testing.T) {
	writer := &fakeWriter{}
	gen := &stubGen{variations: []domain.Variation{{ID: "v-1", Title: "one"}}}
	client := NewRecordingClient(gen, writer, slog.Default(), "sess-1")

	got, err := client.GenerateVariations(context.Background(), domain.SeedIdea{Title: "seed"})
	if err != nil {
		t.Fatalf("GenerateVariations() err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("variations=%d, want 1", len(got))
	}
	if len(writer.transcripts) != 1 {
		t.Fatalf("transcripts=%d, want 1", len(writer.transcripts))
	}
	tr := writer.transcripts[0]
	if tr.SessionID != "sess-1" || tr.Kind != KindVariations {
		t.Fatalf("transcript=%+v", tr)
	}
	if tr.Seed == nil || tr.Seed.Title != "seed" {
		t.Fatalf("seed not archived: %+v", tr.Seed)
	}
	if len(tr.Variations) != 1 || tr.Variations[0].ID != "v-1" {
		t.Fatalf("variations not archived: %+v", tr.Variations)
	}
}

func TestRecordingClientArchivesGenerationFailure(t *testing.T) {
	writer := &fakeWriter{}
	gen := &stubGen{err: errors.New("model unavailable")}
	client := NewRecordingClient(gen, writer, slog.Default(), "sess-1")

	if _, err := client.GenerateVariations(context.Background(), domain.SeedIdea{Title: "seed"}); err == nil {
		t.Fatalf("expected generation error to propagate")
	}
	if len(writer.transcripts) != 1 {
		t.Fatalf("transcripts=%d, want 1", len(writer.transcripts))
	}
	if writer.transcripts[0].Error != "model unavailable" {
		t.Fatalf("error not archived: %q", writer.transcripts[0].Error)
	}
}

func TestRecordingClientArchiveFailureIsBestEffort(t *testing.T) {
	writer := &fakeWriter{err: errors.New("bucket gone")}
	gen := &stubGen{concepts: []domain.CombinedConcept{{ID: "c-1"}}}
	client := NewRecordingClient(gen, writer, slog.Default(), "sess-1")

	got, err := client.GenerateCombinedConcepts(context.Background(), "base", []domain.Variation{{ID: "v-1"}, {ID: "v-2"}})
	if err != nil {
		t.Fatalf("archive failure must not fail the generation, err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("concepts=%d, want 1", len(got))
	}
}

func TestRecordingClientWithoutStore(t *testing.T) {
	gen := &stubGen{variations: []domain.Variation{{ID: "v-1"}}}
	client := NewRecordingClient(gen, nil, nil, "sess-1")

	if _, err := client.GenerateVariations(context.Background(), domain.SeedIdea{Title: "seed"}); err != nil {
		t.Fatalf("nil store must be a pass-through, err=%v", err)
	}
}
