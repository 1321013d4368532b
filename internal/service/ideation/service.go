package ideation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry-go/internal/archive"
	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/genai"
	"github.com/foundry-app/foundry-go/internal/pipeline"
	"github.com/foundry-app/foundry-go/internal/platform/auditlog"
	"github.com/foundry-app/foundry-go/internal/platform/env"
	"github.com/foundry-app/foundry-go/internal/repo"
)

// ErrSessionNotFound covers both a genuinely unknown session id and a
// session owned by someone else; callers cannot tell the two apart.
var ErrSessionNotFound = errors.New("session not found")

type Config struct {
	GenerationTimeout time.Duration
	SessionIdleTTL    time.Duration
	SweepInterval     time.Duration
}

func ConfigFromEnv() (Config, error) {
	genTimeout, err := env.Duration("FOUNDRY_GENERATION_TIMEOUT", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := env.Duration("FOUNDRY_SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return Config{}, err
	}
	sweep, err := env.Duration("FOUNDRY_SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{GenerationTimeout: genTimeout, SessionIdleTTL: idleTTL, SweepInterval: sweep}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.GenerationTimeout <= 0 {
		return errors.New("generation timeout must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("session idle ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

// AuditContext carries request identity for audit records.
type AuditContext struct {
	Actor     string
	RequestID string
}

// AuditEventAppender ensures append-only audit writes.
type AuditEventAppender interface {
	Append(ctx context.Context, event auditlog.Event) (int64, error)
}

type session struct {
	id       string
	owner    string
	pipeline *pipeline.Pipeline
	lastSeen time.Time
}

// Service owns the in-memory refinement sessions and the commit boundary.
// Refinement state lives only here; the database sees exactly one insert
// per committed idea.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session

	client      genai.Client
	transcripts archive.TranscriptWriter
	ideas       repo.IdeaRepository
	audit       AuditEventAppender
	logger      *slog.Logger
	cfg         Config
	now         func() time.Time
}

func NewService(client genai.Client, ideas repo.IdeaRepository, audit AuditEventAppender, transcripts archive.TranscriptWriter, logger *slog.Logger, cfg Config) (*Service, error) {
	if client == nil {
		return nil, errors.New("generation client is required")
	}
	if ideas == nil {
		return nil, errors.New("idea repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		sessions:    map[string]*session{},
		client:      client,
		transcripts: transcripts,
		ideas:       ideas,
		audit:       audit,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// StartSession opens a refinement run for the owner with the given seed.
// The seed may still be blank; it only has to validate at generation time.
func (s *Service) StartSession(owner string, seed domain.SeedIdea) (string, pipeline.State, error) {
	if owner == "" {
		return "", pipeline.State{}, domain.NewValidationError("owner is required")
	}
	id := uuid.NewString()
	client := s.client
	if s.transcripts != nil {
		client = archive.NewRecordingClient(s.client, s.transcripts, s.logger, id)
	}
	sess := &session{
		id:       id,
		owner:    owner,
		pipeline: pipeline.New(client, seed),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("ideation session started", "session_id", id, "owner", owner)
	return id, sess.pipeline.Snapshot(), nil
}

func (s *Service) lookup(owner, id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.owner != owner {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *Service) State(owner, id string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) UpdateSeed(owner, id string, seed domain.SeedIdea) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.UpdateSeed(seed); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) GenerateVariations(ctx context.Context, auditCtx AuditContext, id string) (pipeline.State, error) {
	sess, err := s.lookup(auditCtx.Actor, id)
	if err != nil {
		return pipeline.State{}, err
	}
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	if err := sess.pipeline.GenerateVariations(genCtx); err != nil {
		return pipeline.State{}, err
	}
	state := sess.pipeline.Snapshot()
	s.appendAudit(ctx, auditCtx, "ideation.generate", id, map[string]any{
		"seed_title":      state.Seed.Title,
		"variation_count": len(state.Variations),
	})
	return state, nil
}

func (s *Service) RegenerateVariation(ctx context.Context, owner, id, variationID string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	if err := sess.pipeline.RegenerateVariation(genCtx, variationID); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) Combine(ctx context.Context, auditCtx AuditContext, id string) (pipeline.State, error) {
	return s.combine(ctx, auditCtx, id, false)
}

func (s *Service) RegenerateCombined(ctx context.Context, auditCtx AuditContext, id string) (pipeline.State, error) {
	return s.combine(ctx, auditCtx, id, true)
}

func (s *Service) combine(ctx context.Context, auditCtx AuditContext, id string, regenerate bool) (pipeline.State, error) {
	sess, err := s.lookup(auditCtx.Actor, id)
	if err != nil {
		return pipeline.State{}, err
	}
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	if regenerate {
		err = sess.pipeline.RegenerateCombined(genCtx)
	} else {
		err = sess.pipeline.Combine(genCtx)
	}
	if err != nil {
		return pipeline.State{}, err
	}
	state := sess.pipeline.Snapshot()
	s.appendAudit(ctx, auditCtx, "ideation.combine", id, map[string]any{
		"concept_count": len(state.Combined),
		"regenerate":    regenerate,
	})
	return state, nil
}

func (s *Service) ToggleSelect(owner, id string, col pipeline.Collection, itemID string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.ToggleSelect(col, itemID); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) BeginEdit(owner, id string, col pipeline.Collection, itemID string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.BeginEdit(col, itemID); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) UpdateEditBuffer(owner, id string, col pipeline.Collection, itemID, field, value string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.UpdateEditBuffer(col, itemID, field, value); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) CommitEdit(owner, id string, col pipeline.Collection, itemID string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.CommitEdit(col, itemID); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) CancelEdit(owner, id string, col pipeline.Collection, itemID string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.CancelEdit(col, itemID); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) UpdateLikedAspects(owner, id, variationID, text string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.UpdateLikedAspects(variationID, text); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

func (s *Service) Back(owner, id string) (pipeline.State, error) {
	sess, err := s.lookup(owner, id)
	if err != nil {
		return pipeline.State{}, err
	}
	if err := sess.pipeline.Back(); err != nil {
		return pipeline.State{}, err
	}
	return sess.pipeline.Snapshot(), nil
}

// Commit finalizes the founder's pick, persists it, and clears the session
// for a new run. On persist failure the refinement state is retained so the
// founder can retry without losing work.
func (s *Service) Commit(ctx context.Context, auditCtx AuditContext, id string) (domain.FinalizedIdeaRecord, error) {
	sess, err := s.lookup(auditCtx.Actor, id)
	if err != nil {
		return domain.FinalizedIdeaRecord{}, err
	}
	record, err := sess.pipeline.Finalize()
	if err != nil {
		return domain.FinalizedIdeaRecord{}, err
	}
	record.ID = uuid.NewString()
	record.CreatedAt = s.now().UTC()
	record.CreatedBy = auditCtx.Actor
	if err := record.Validate(); err != nil {
		return domain.FinalizedIdeaRecord{}, fmt.Errorf("finalized record invalid: %w", err)
	}

	if err := s.ideas.CreateIdea(ctx, record); err != nil {
		return domain.FinalizedIdeaRecord{}, &domain.PersistError{Err: err}
	}

	s.appendAudit(ctx, auditCtx, "idea.commit", record.ID, map[string]any{
		"session_id":    id,
		"title":         record.Title,
		"from_combined": record.AIFeedback.CombinedConcept != nil,
		"source_count":  len(record.AIFeedback.OriginalVariations),
	})
	s.logger.Info("idea committed", "idea_id", record.ID, "session_id", id, "owner", auditCtx.Actor)

	sess.pipeline.Reset()
	return record, nil
}

// DeleteSession discards a refinement run outright.
func (s *Service) DeleteSession(owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.owner != owner {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Service) GetIdea(ctx context.Context, owner, ideaID string) (domain.FinalizedIdeaRecord, error) {
	return s.ideas.GetIdea(ctx, owner, ideaID)
}

func (s *Service) ListIdeas(ctx context.Context, owner string, status string, limit int) ([]domain.FinalizedIdeaRecord, error) {
	return s.ideas.ListIdeas(ctx, repo.IdeaFilter{CreatedBy: owner, Status: status, Limit: limit})
}

// ExpireIdle drops sessions untouched for longer than the idle TTL and
// returns how many were removed.
func (s *Service) ExpireIdle() int {
	cutoff := s.now().Add(-s.cfg.SessionIdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("idle ideation sessions expired", "count", removed)
	}
	return removed
}

// RunSweeper expires idle sessions on an interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle()
		}
	}
}

func (s *Service) appendAudit(ctx context.Context, auditCtx AuditContext, action, resourceID string, payload map[string]any) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Append(ctx, auditlog.Event{
		OccurredAt:   s.now().UTC(),
		Actor:        auditCtx.Actor,
		Action:       action,
		ResourceType: auditResourceType(action),
		ResourceID:   resourceID,
		RequestID:    auditCtx.RequestID,
		Payload:      payload,
	})
	if err != nil {
		s.logger.Warn("audit append failed", "action", action, "resource_id", resourceID, "error", err)
	}
}

func auditResourceType(action string) string {
	if action == "idea.commit" {
		return "idea"
	}
	return "ideation_session"
}
