package cognition

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"noesis/internal/agents"
	"noesis/internal/kgraph"
)

const conceptualK = 5

// runConceptualOperation handles the "合成「A」と「B」" plan trigger: embed
// both concepts, combine them as a weighted-sum unit vector, and query the
// nearest known concepts to that combination.
func (l *Loop) runConceptualOperation(ctx context.Context, query, plan string) (Result, error) {
	matches := conceptPattern.FindStringSubmatch(plan)
	if len(matches) != 3 {
		return Result{}, fmt.Errorf("conceptual operation: plan did not match expected 合成「A」と「B」 pattern")
	}
	conceptA, conceptB := matches[1], matches[2]

	vecA, err := l.Embedder.Embed(ctx, conceptA)
	if err != nil {
		return Result{}, fmt.Errorf("embed %q: %w", conceptA, err)
	}
	vecB, err := l.Embedder.Embed(ctx, conceptB)
	if err != nil {
		return Result{}, fmt.Errorf("embed %q: %w", conceptB, err)
	}
	combined := combineAndNormalize(vecA, vecB, 0.5, 0.5)

	var retrievedInfo string
	if l.Concepts != nil {
		neighbors, err := l.Concepts.Query(ctx, combined, conceptualK)
		if err != nil {
			return Result{}, fmt.Errorf("query conceptual memory: %w", err)
		}
		retrievedInfo = describeNeighbors(neighbors)
	}

	synthesis, err := l.Synth.Synthesize(ctx, agents.SynthesisInput{
		Query:              query,
		Plan:               plan,
		FinalRetrievedInfo: retrievedInfo,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Synthesis: synthesis, RetrievedInfo: retrievedInfo}, nil
}

// combineAndNormalize is a weighted sum followed by L2 normalization — the
// vector-space analogue of "blending" two concepts into one.
func combineAndNormalize(a, b []float32, weightA, weightB float64) []float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(weightA*float64(a[i]) + weightB*float64(b[i]))
	}
	var sumSq float64
	for _, v := range out {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

// describeNeighbors renders nearest-concept hits as a human-readable
// analysis, one per line, most similar first (callers are expected to pass
// results already sorted by score descending).
func describeNeighbors(neighbors []kgraph.VectorResult) string {
	var b strings.Builder
	for _, n := range neighbors {
		b.WriteString(n.ID + " (similarity " + strconv.FormatFloat(n.Score, 'f', 3, 64) + ")\n")
	}
	return b.String()
}
