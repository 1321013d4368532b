package domain

// PipelineStage is the current phase of a refinement run.
type PipelineStage string

const (
	StageInitial    PipelineStage = "initial"
	StageVariations PipelineStage = "variations"
	StageCombined   PipelineStage = "combined"
)

// CanTransitionStage reports whether a stage change is legal. Self
// transitions cover in-place regeneration; backward steps are the explicit
// back-navigation edges.
func CanTransitionStage(current, next PipelineStage) bool {
	if current == "" || next == "" {
		return false
	}
	if current == next {
		return true
	}
	switch current {
	case StageInitial:
		return next == StageVariations
	case StageVariations:
		return next == StageCombined || next == StageInitial
	case StageCombined:
		return next == StageVariations
	default:
		return false
	}
}
