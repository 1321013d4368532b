package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/platform/objectstore"
)

// Transcript is one archived generation exchange: what was asked of the
// model and what came back. Transcripts are written once and never updated.
type Transcript struct {
	TranscriptID string                   `json:"transcript_id"`
	SessionID    string                   `json:"session_id"`
	Kind         string                   `json:"kind"`
	RecordedAt   time.Time                `json:"recorded_at"`
	Seed         *domain.SeedIdea         `json:"seed,omitempty"`
	Prior        *domain.Variation        `json:"prior,omitempty"`
	SelectedIn   []domain.Variation       `json:"selected_in,omitempty"`
	Variations   []domain.Variation       `json:"variations,omitempty"`
	Concepts     []domain.CombinedConcept `json:"concepts,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

const (
	KindVariations  = "variations"
	KindRegenerate  = "regenerate"
	KindCombination = "combination"
)

// Store writes transcripts as JSON objects under sessions/<session>/.
type Store struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

func NewStore(client *minio.Client, cfg objectstore.Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{client: client, bucket: cfg.BucketTranscripts, now: time.Now}, nil
}

func (s *Store) Put(ctx context.Context, transcript Transcript) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("transcript store not initialized")
	}
	if transcript.SessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if transcript.Kind == "" {
		return "", fmt.Errorf("transcript kind is required")
	}
	if transcript.TranscriptID == "" {
		transcript.TranscriptID = uuid.NewString()
	}
	if transcript.RecordedAt.IsZero() {
		transcript.RecordedAt = s.now().UTC()
	}

	body, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	key := fmt.Sprintf("sessions/%s/%s-%s.json", transcript.SessionID, transcript.Kind, transcript.TranscriptID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put transcript: %w", err)
	}
	return key, nil
}

func (s *Store) Get(ctx context.Context, key string) (Transcript, error) {
	if s == nil || s.client == nil {
		return Transcript{}, fmt.Errorf("transcript store not initialized")
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Transcript{}, fmt.Errorf("get transcript: %w", err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	var transcript Transcript
	if err := json.Unmarshal(body, &transcript); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return transcript, nil
}
