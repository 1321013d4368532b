package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/genai"
)

// Pipeline is one founder's idea-refinement run: the seed, the generated
// collections, their edit/selection sub-state, and the current stage. All
// mutations are synchronous under one mutex; the only suspension points are
// the generation calls, which release the lock while the request is
// outstanding and re-validate before applying the result.
type Pipeline struct {
	mu     sync.Mutex
	client genai.Client

	stage      domain.PipelineStage
	seed       domain.SeedIdea
	variations []domain.Variation
	combined   []domain.CombinedConcept
	buffers    map[string]EditBuffer

	// combinedFrom is the variation set (with liked-aspects notes) that
	// produced the current concept batch. Selection can keep changing after
	// combination, so the provenance of the batch is captured here rather
	// than re-read from the live flags.
	combinedFrom []domain.Variation

	// inflight admits at most one outstanding generation request; epoch
	// invalidates a result whose context the founder has since left.
	inflight bool
	epoch    uint64
}

func New(client genai.Client, seed domain.SeedIdea) *Pipeline {
	return &Pipeline{
		client:  client,
		stage:   domain.StageInitial,
		seed:    seed,
		buffers: map[string]EditBuffer{},
	}
}

// State is a deep copy of the pipeline for rendering. EditBuffers is keyed
// by item id; variation and concept ids never collide.
type State struct {
	Stage       domain.PipelineStage
	Seed        domain.SeedIdea
	Variations  []domain.Variation
	Combined    []domain.CombinedConcept
	EditBuffers map[string]EditBuffer
	Generating  bool
}

func (p *Pipeline) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := State{
		Stage:       p.stage,
		Seed:        p.seed,
		Variations:  append([]domain.Variation(nil), p.variations...),
		Combined:    make([]domain.CombinedConcept, 0, len(p.combined)),
		EditBuffers: make(map[string]EditBuffer, len(p.buffers)),
		Generating:  p.inflight,
	}
	for _, c := range p.combined {
		c.SourceElements = append([]string(nil), c.SourceElements...)
		state.Combined = append(state.Combined, c)
	}
	for id, buf := range p.buffers {
		state.EditBuffers[id] = buf
	}
	return state
}

func (p *Pipeline) Stage() domain.PipelineStage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// UpdateSeed replaces the seed. The seed is only editable before variations
// exist; back-navigation to the initial stage re-opens it.
func (p *Pipeline) UpdateSeed(seed domain.SeedIdea) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != domain.StageInitial {
		return domain.NewValidationError("the seed idea is locked once variations are generated")
	}
	p.seed = seed
	p.epoch++
	return nil
}

// GenerateVariations runs Initial -> Variations. The previous variation
// batch, if any, is replaced wholesale.
func (p *Pipeline) GenerateVariations(ctx context.Context) error {
	p.mu.Lock()
	if p.stage != domain.StageInitial {
		p.mu.Unlock()
		return domain.NewValidationError("variations are generated from the initial stage")
	}
	if err := p.seed.Validate(); err != nil {
		p.mu.Unlock()
		return &domain.ValidationError{Msg: err.Error()}
	}
	if p.inflight {
		p.mu.Unlock()
		return domain.NewValidationError("a generation request is already in progress")
	}
	p.inflight = true
	epoch := p.epoch
	seed := p.seed
	p.mu.Unlock()

	batch, err := p.client.GenerateVariations(ctx, seed)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight = false
	if err != nil {
		return &domain.GenerationError{Msg: "generate variations", Err: err}
	}
	if p.epoch != epoch {
		return staleResultError("generate variations")
	}
	if len(batch) == 0 {
		return &domain.GenerationError{Msg: "generate variations", Err: errors.New("service returned no variations")}
	}
	for i := range batch {
		batch[i].Selected = false
		batch[i].Editing = false
		batch[i].LikedAspects = ""
	}
	p.variations = batch
	p.combined = nil
	p.combinedFrom = nil
	p.buffers = map[string]EditBuffer{}
	return p.setStageLocked(domain.StageVariations)
}

// RegenerateVariation replaces one variation's content in place. The id,
// selection, and liked-aspects note survive; an open edit buffer does not.
func (p *Pipeline) RegenerateVariation(ctx context.Context, id string) error {
	p.mu.Lock()
	if p.stage != domain.StageVariations {
		p.mu.Unlock()
		return domain.NewValidationError("variations can only be regenerated from the variations stage")
	}
	target := p.findVariation(id)
	if target == nil {
		p.mu.Unlock()
		return domain.NewValidationError("unknown variation %q", id)
	}
	if p.inflight {
		p.mu.Unlock()
		return domain.NewValidationError("a generation request is already in progress")
	}
	p.inflight = true
	epoch := p.epoch
	seed := p.seed
	prior := *target
	p.mu.Unlock()

	replacement, err := p.client.RegenerateVariation(ctx, seed, prior)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight = false
	if err != nil {
		return &domain.GenerationError{Msg: "regenerate variation", Err: err}
	}
	if p.epoch != epoch {
		return staleResultError("regenerate variation")
	}
	v := p.findVariation(id)
	if v == nil {
		return staleResultError("regenerate variation")
	}
	v.Title = replacement.Title
	v.Description = replacement.Description
	v.Differentiator = replacement.Differentiator
	v.TargetMarket = replacement.TargetMarket
	v.RevenueModel = replacement.RevenueModel
	v.Editing = false
	delete(p.buffers, id)
	return nil
}

// Combine runs Variations -> Combined from the currently selected
// variations. With fewer than two selections the founder should either
// select more or continue directly with the single pick.
func (p *Pipeline) Combine(ctx context.Context) error {
	return p.generateCombined(ctx, domain.StageVariations)
}

// RegenerateCombined re-runs the combination call with the same selected
// variations and replaces the whole concept batch.
func (p *Pipeline) RegenerateCombined(ctx context.Context) error {
	return p.generateCombined(ctx, domain.StageCombined)
}

func (p *Pipeline) generateCombined(ctx context.Context, fromStage domain.PipelineStage) error {
	p.mu.Lock()
	if p.stage != fromStage {
		p.mu.Unlock()
		return domain.NewValidationError("combined concepts cannot be generated from the %s stage", p.stage)
	}
	var selected []domain.Variation
	if fromStage == domain.StageCombined {
		selected = append([]domain.Variation(nil), p.combinedFrom...)
	} else {
		selected = p.selectedVariationsLocked()
	}
	if len(selected) < 2 {
		p.mu.Unlock()
		return domain.NewValidationError("select at least two variations to combine")
	}
	if p.inflight {
		p.mu.Unlock()
		return domain.NewValidationError("a generation request is already in progress")
	}
	p.inflight = true
	epoch := p.epoch
	baseTitle := p.seed.Title
	p.mu.Unlock()

	batch, err := p.client.GenerateCombinedConcepts(ctx, baseTitle, selected)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight = false
	if err != nil {
		return &domain.GenerationError{Msg: "combine variations", Err: err}
	}
	if p.epoch != epoch {
		return staleResultError("combine variations")
	}
	if len(batch) == 0 {
		return &domain.GenerationError{Msg: "combine variations", Err: errors.New("service returned no concepts")}
	}
	for i := range batch {
		batch[i].Selected = false
		batch[i].Editing = false
	}
	p.combined = batch
	p.combinedFrom = selected
	for id := range p.buffers {
		if p.findVariation(id) == nil {
			delete(p.buffers, id)
		}
	}
	return p.setStageLocked(domain.StageCombined)
}

// Back discards the current stage's data and returns to the previous stage,
// which keeps its own data so nothing has to be retyped.
func (p *Pipeline) Back() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var next domain.PipelineStage
	switch p.stage {
	case domain.StageCombined:
		p.dropCombinedLocked()
		next = domain.StageVariations
	case domain.StageVariations:
		p.dropVariationsLocked()
		p.dropCombinedLocked()
		next = domain.StageInitial
	default:
		return domain.NewValidationError("already at the initial stage")
	}
	p.epoch++
	return p.setStageLocked(next)
}

// Reset clears the whole run for a new idea.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seed = domain.SeedIdea{}
	p.dropVariationsLocked()
	p.dropCombinedLocked()
	p.stage = domain.StageInitial
	p.epoch++
}

// Finalize assembles the durable record from whichever stage produced the
// founder's pick: the single selected variation (the shortcut branch that
// skips combination) or the single selected combined concept. It does not
// mutate the pipeline; persistence and clearing belong to the caller.
func (p *Pipeline) Finalize() (domain.FinalizedIdeaRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.stage {
	case domain.StageVariations:
		selected := p.selectedVariationsLocked()
		if len(selected) != 1 {
			return domain.FinalizedIdeaRecord{}, domain.NewValidationError("select an idea to continue")
		}
		return recordFromVariation(selected[0]), nil
	case domain.StageCombined:
		var chosen *domain.CombinedConcept
		for i := range p.combined {
			if p.combined[i].Selected {
				if chosen != nil {
					return domain.FinalizedIdeaRecord{}, domain.NewValidationError("select an idea to continue")
				}
				chosen = &p.combined[i]
			}
		}
		if chosen == nil {
			return domain.FinalizedIdeaRecord{}, domain.NewValidationError("select an idea to continue")
		}
		return recordFromConcept(*chosen, p.combinedFrom), nil
	default:
		return domain.FinalizedIdeaRecord{}, domain.NewValidationError("nothing to commit yet")
	}
}

func (p *Pipeline) dropCombinedLocked() {
	for id := range p.buffers {
		if p.findConcept(id) != nil {
			delete(p.buffers, id)
		}
	}
	p.combined = nil
	p.combinedFrom = nil
}

func (p *Pipeline) dropVariationsLocked() {
	for id := range p.buffers {
		if p.findVariation(id) != nil {
			delete(p.buffers, id)
		}
	}
	p.variations = nil
}

// setStageLocked moves the run to next, rejecting edges the stage graph
// does not have. Reset bypasses it: wiping the run is not a transition.
func (p *Pipeline) setStageLocked(next domain.PipelineStage) error {
	if !domain.CanTransitionStage(p.stage, next) {
		return domain.NewValidationError("cannot move from the %s stage to the %s stage", p.stage, next)
	}
	p.stage = next
	return nil
}

func staleResultError(action string) error {
	return &domain.GenerationError{
		Msg: action,
		Err: errors.New("result discarded: the pipeline moved on while the request was outstanding"),
	}
}
