package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/repo"
)

type IdeaStore struct {
	db DB
}

func NewIdeaStore(db DB) *IdeaStore {
	if db == nil {
		return nil
	}
	return &IdeaStore{db: db}
}

func (s *IdeaStore) CreateIdea(ctx context.Context, idea domain.FinalizedIdeaRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("idea store not initialized")
	}
	if err := idea.Validate(); err != nil {
		return err
	}
	feedbackJSON, err := json.Marshal(idea.AIFeedback)
	if err != nil {
		return fmt.Errorf("encode ai feedback: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO ideas (
			idea_id,
			title,
			description,
			target_market,
			solution_concept,
			status,
			ai_feedback,
			created_at,
			created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		strings.TrimSpace(idea.ID),
		strings.TrimSpace(idea.Title),
		idea.Description,
		idea.TargetMarket,
		idea.SolutionConcept,
		strings.TrimSpace(idea.Status),
		feedbackJSON,
		normalizeTime(idea.CreatedAt),
		strings.TrimSpace(idea.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}
	return nil
}

func (s *IdeaStore) GetIdea(ctx context.Context, createdBy, id string) (domain.FinalizedIdeaRecord, error) {
	if s == nil || s.db == nil {
		return domain.FinalizedIdeaRecord{}, fmt.Errorf("idea store not initialized")
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return domain.FinalizedIdeaRecord{}, fmt.Errorf("created_by is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.FinalizedIdeaRecord{}, fmt.Errorf("idea id is required")
	}
	var (
		idea         domain.FinalizedIdeaRecord
		feedbackJSON []byte
	)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT idea_id, title, description, target_market, solution_concept, status, ai_feedback, created_at, created_by
		 FROM ideas
		 WHERE idea_id = $1 AND created_by = $2`,
		id,
		createdBy,
	)
	if err := row.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.TargetMarket, &idea.SolutionConcept, &idea.Status, &feedbackJSON, &idea.CreatedAt, &idea.CreatedBy); err != nil {
		return domain.FinalizedIdeaRecord{}, handleNotFound(err)
	}
	if len(feedbackJSON) > 0 {
		if err := json.Unmarshal(feedbackJSON, &idea.AIFeedback); err != nil {
			return domain.FinalizedIdeaRecord{}, fmt.Errorf("decode ai feedback: %w", err)
		}
	}
	return idea, nil
}

func (s *IdeaStore) ListIdeas(ctx context.Context, filter repo.IdeaFilter) ([]domain.FinalizedIdeaRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("idea store not initialized")
	}
	query, args := buildIdeaListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]domain.FinalizedIdeaRecord, 0)
	for rows.Next() {
		var idea domain.FinalizedIdeaRecord
		var feedbackJSON []byte
		if err := rows.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.TargetMarket, &idea.SolutionConcept, &idea.Status, &feedbackJSON, &idea.CreatedAt, &idea.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		if len(feedbackJSON) > 0 {
			if err := json.Unmarshal(feedbackJSON, &idea.AIFeedback); err != nil {
				return nil, fmt.Errorf("decode ai feedback: %w", err)
			}
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

func buildIdeaListQuery(filter repo.IdeaFilter) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if strings.TrimSpace(filter.CreatedBy) != "" {
		args = append(args, strings.TrimSpace(filter.CreatedBy))
		clauses = append(clauses, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if strings.TrimSpace(filter.Status) != "" {
		args = append(args, strings.TrimSpace(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT idea_id, title, description, target_market, solution_concept, status, ai_feedback, created_at, created_by FROM ideas`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}
