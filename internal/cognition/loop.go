package cognition

import (
	"context"
	"regexp"
	"strings"
	"time"

	"noesis/internal/agents"
	"noesis/internal/kgraph"
	"noesis/internal/memorylog"

	"github.com/rs/zerolog/log"
)

// symbolicMarkers select the Symbolic Reasoning Loop branch.
var symbolicMarkers = []string{"記号的検証", "数学的証明"}

// conceptPattern matches the conceptual-operation trigger, e.g. 合成「A」と「B」.
var conceptPattern = regexp.MustCompile(`合成「(.+?)」と「(.+?)」`)

const defaultMaxIterations = 3
const kgFragmentTimeout = 60 * time.Second
const physicalInsightTopic = "physical_simulation_insight"

// Result is everything the cognitive loop produced, for the calling
// pipeline to fold into a MasterResponse.
type Result struct {
	Synthesis     string
	RetrievedInfo string
	ReasoningTrace string
}

// Loop is the CognitiveLoop collaborator.
type Loop struct {
	Retriever     Retriever
	Evaluator     *agents.RetrievalEvaluatorAgent
	Refiner       *agents.QueryRefinementAgent
	ToolUser      *agents.ToolUsingAgent
	Tools         ToolExecutor
	Browser       BrowserFetcher
	Summarizer    *agents.SummarizerAgent
	Embedder      Embedder
	Concepts      ConceptualMemory
	Graph         kgraph.KnowledgeGraphStore
	KGExtractor   *agents.KnowledgeGraphAgent
	Memory        memorylog.MemoryLog
	Synth         Synthesizer

	Hypothesis *agents.HypothesisAgent
	Symbolic   *agents.SymbolicVerifier
	Deductive  *agents.DeductiveReasonerAgent

	MaxIterations int
}

// Run executes the branch selected by plan's content and returns the
// synthesis the calling pipeline folds into its final answer.
func (l *Loop) Run(ctx context.Context, query, plan, reasoningInstruction string) (Result, error) {
	switch {
	case containsAny(plan, symbolicMarkers):
		trace, err := l.runSymbolicReasoning(ctx, query)
		if err != nil {
			return Result{}, err
		}
		return Result{Synthesis: trace, ReasoningTrace: trace}, nil

	case conceptPattern.MatchString(plan):
		return l.runConceptualOperation(ctx, query, plan)

	default:
		return l.runIterativeRetrieval(ctx, query, plan, reasoningInstruction)
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// runIterativeRetrieval is the default branch: retrieve, evaluate, maybe
// use a tool, maybe refine the query, up to MaxIterations times.
func (l *Loop) runIterativeRetrieval(ctx context.Context, query, plan, reasoningInstruction string) (Result, error) {
	if url := firstURL(query); url != "" && l.Browser != nil {
		text, err := l.Browser.FetchText(ctx, url)
		if err != nil {
			return Result{}, err
		}
		if len(text) > 15000 {
			text = text[:15000]
		}
		summary, err := l.summarize(ctx, text)
		if err != nil {
			return Result{}, err
		}
		return Result{Synthesis: summary, RetrievedInfo: text}, nil
	}

	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	currentQuery := query
	var finalRetrieved string

	for iter := 0; iter < maxIter; iter++ {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		docs, err := l.retrieve(ctx, currentQuery)
		if err != nil {
			return Result{}, err
		}
		retrievedText := joinDocs(docs)
		finalRetrieved = retrievedText

		eval, err := l.Evaluator.Evaluate(ctx, currentQuery, retrievedText)
		if err != nil {
			return Result{}, err
		}

		toolUsedThisCycle := false
		if eval.RelevanceScore <= 8 || eval.CompletenessScore <= 8 {
			if used, err := l.maybeUseTool(ctx, currentQuery); err == nil && used {
				toolUsedThisCycle = true
			}
		}

		if (eval.RelevanceScore > 8 && eval.CompletenessScore > 8) || toolUsedThisCycle {
			break
		}

		refined, err := l.Refiner.Refine(ctx, currentQuery, eval.Suggestions)
		if err == nil && refined != "" {
			currentQuery = refined
		}
	}

	kgFragment := l.generateKGFragment(ctx, finalRetrieved)
	if kgFragment != nil && l.Graph != nil {
		if err := l.Graph.Merge(ctx, *kgFragment); err != nil {
			log.Warn().Err(err).Msg("cognitive loop: knowledge graph merge failed")
		}
	}

	physicalInsights := l.recentPhysicalInsights(ctx)

	synthesis, err := l.Synth.Synthesize(ctx, agents.SynthesisInput{
		Query:                 query,
		Plan:                  plan,
		LongTermMemoryContext: "",
		FinalRetrievedInfo:    finalRetrieved,
		PhysicalInsights:      physicalInsights,
		ReasoningInstruction:  reasoningInstruction,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Synthesis: synthesis, RetrievedInfo: finalRetrieved}, nil
}

func (l *Loop) summarize(ctx context.Context, text string) (string, error) {
	if l.Summarizer != nil {
		return l.Summarizer.Summarize(ctx, text)
	}
	return text, nil
}

func (l *Loop) retrieve(ctx context.Context, query string) ([]Document, error) {
	if l.Retriever == nil {
		return nil, nil
	}
	return l.Retriever.Retrieve(ctx, query)
}

func (l *Loop) maybeUseTool(ctx context.Context, query string) (bool, error) {
	if l.ToolUser == nil || l.Tools == nil {
		return false, nil
	}
	choice, err := l.ToolUser.Choose(ctx, query, "")
	if err != nil || choice.ToolName == "" {
		return false, err
	}
	if l.Tools.SupportsAsync(choice.ToolName) {
		_, err = l.Tools.UseAsync(ctx, choice.ToolName, choice.Input)
	} else {
		_, err = l.Tools.Use(ctx, choice.ToolName, choice.Input)
	}
	return err == nil, err
}

// generateKGFragment extracts a knowledge-graph fragment from the first
// 4000 characters of retrieved text via KGExtractor, within a 60s timeout;
// on timeout or extraction failure it skips rather than retrying.
func (l *Loop) generateKGFragment(ctx context.Context, retrieved string) *kgraph.Fragment {
	if retrieved == "" || l.KGExtractor == nil {
		return nil
	}
	excerpt := retrieved
	if len(excerpt) > 4000 {
		excerpt = excerpt[:4000]
	}
	fctx, cancel := context.WithTimeout(ctx, kgFragmentTimeout)
	defer cancel()
	extraction, err := l.KGExtractor.Extract(fctx, excerpt)
	if err != nil {
		if fctx.Err() != nil {
			log.Warn().Msg("cognitive loop: knowledge graph fragment extraction timed out, skipping")
		} else {
			log.Warn().Err(err).Msg("cognitive loop: knowledge graph fragment extraction failed, skipping")
		}
		return nil
	}
	frag := fragmentFromTriples(extraction.Triples)
	if len(frag.Nodes) == 0 && len(frag.Edges) == 0 {
		return nil
	}
	return &frag
}

// fragmentFromTriples turns subject-predicate-object triples into a
// knowledge-graph fragment, deduplicating node IDs the way
// governor.parseCapabilityFragment does for its own mapper output.
func fragmentFromTriples(triples []agents.KGTriple) kgraph.Fragment {
	var frag kgraph.Fragment
	seen := map[string]bool{}
	for _, t := range triples {
		subject, predicate, object := strings.TrimSpace(t.Subject), strings.TrimSpace(t.Predicate), strings.TrimSpace(t.Object)
		if subject == "" || predicate == "" || object == "" {
			continue
		}
		for _, id := range []string{subject, object} {
			if !seen[id] {
				seen[id] = true
				frag.Nodes = append(frag.Nodes, kgraph.Node{ID: id})
			}
		}
		weight := t.Weight
		if weight <= 0 {
			weight = 1
		}
		frag.Edges = append(frag.Edges, kgraph.Edge{Source: subject, Label: predicate, Target: object, Weight: weight})
	}
	return frag
}

func (l *Loop) recentPhysicalInsights(ctx context.Context) string {
	if l.Memory == nil {
		return ""
	}
	entries, err := l.Memory.GetRecentInsights(ctx, physicalInsightTopic, 3)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Text + "\n")
	}
	return b.String()
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

func firstURL(query string) string {
	return urlPattern.FindString(query)
}

func joinDocs(docs []Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Text)
		b.WriteString("\n")
	}
	return b.String()
}
