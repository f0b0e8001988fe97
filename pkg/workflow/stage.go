package workflow

// Stage identifies one phase of the analysis pipeline. Transitions only move
// forward; a failure inside a stage either retries within the stage or jumps
// the session straight to StageTerminal with an error payload.
type Stage string

const (
	StageInitialized Stage = "initialized"
	StageGitHub      Stage = "github_processing"
	StageLinkedIn    Stage = "linkedin_processing"
	StageCompleting  Stage = "completing"
	StageTerminal    Stage = "terminal"
)

var stageOrder = map[Stage]int{
	StageInitialized: 0,
	StageGitHub:      1,
	StageLinkedIn:    2,
	StageCompleting:  3,
	StageTerminal:    4,
}

// Terminal reports whether the stage ends the session.
func (s Stage) Terminal() bool {
	return s == StageTerminal
}

// Before reports whether s precedes other in the pipeline ordering.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}
