package repo

import (
	"context"
	"errors"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row. Owner-scoped reads
// also return it when the row exists but belongs to someone else.
var ErrNotFound = errors.New("not found")

type IdeaFilter struct {
	CreatedBy string
	Status    string
	Limit     int
}

// IdeaRepository persists finalized ideas. Rows are written once at commit
// time; refinement state never touches the database.
type IdeaRepository interface {
	CreateIdea(ctx context.Context, idea domain.FinalizedIdeaRecord) error
	GetIdea(ctx context.Context, createdBy, id string) (domain.FinalizedIdeaRecord, error)
	ListIdeas(ctx context.Context, filter IdeaFilter) ([]domain.FinalizedIdeaRecord, error)
}
