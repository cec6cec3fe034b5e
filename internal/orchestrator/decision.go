// Package orchestrator implements the request-time router: given a query
// it decides which cognitive pipeline should handle it. It never invokes a
// pipeline itself and never consults the energy budget — both are the
// Engine's job.
package orchestrator

// Decision is the orchestrator's routing output, later possibly downgraded
// by the arbiter before the engine dispatches it to a pipeline.
type Decision struct {
	ChosenMode      string
	Reasoning       string
	ConfidenceScore float64
	Parameters      map[string]any
}

// ReasoningEmphasis values overlaid onto Decision.Parameters["reasoning_emphasis"].
const (
	EmphasisBirdsEyeView  = "bird's_eye_view"
	EmphasisDetailOriented = "detail_oriented"
	EmphasisUnset          = "unset"
)
