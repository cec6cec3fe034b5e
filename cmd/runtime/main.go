// Command runtime is the cognitive orchestration runtime's process entry
// point: it wires every collaborator package into an Orchestrator, an
// Engine over the eleven named pipelines, and the background Governor,
// then serves the HTTP/WS front door described in spec.md §6.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"noesis/internal/affect"
	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/arbiter"
	"noesis/internal/cognition"
	"noesis/internal/config"
	"noesis/internal/energy"
	"noesis/internal/engine"
	"noesis/internal/governor"
	"noesis/internal/httpapi"
	"noesis/internal/integrity"
	"noesis/internal/kgraph"
	"noesis/internal/llm"
	"noesis/internal/mcpclient"
	"noesis/internal/memorylog"
	"noesis/internal/microllm"
	"noesis/internal/observability"
	"noesis/internal/orchestrator"
	"noesis/internal/pipeline"
	"noesis/internal/promptstore"
	"noesis/internal/selfevolve"
	"noesis/internal/tools"
	"noesis/internal/tools/cli"
	"noesis/internal/tools/filetool"
	"noesis/internal/tools/fs"
	"noesis/internal/tools/kafka"
	"noesis/internal/tools/multitool"
	"noesis/internal/tools/patchtool"
	"noesis/internal/tools/web"
	"noesis/internal/toolregistry"
	"noesis/internal/values"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		log.Fatal().Err(err).Msg("failed to load config")
	}

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	ctx := context.Background()

	shutdown, err := observability.InitOTel(ctx, cfg.Obs)
	if err != nil {
		log.Warn().Err(err).Msg("otel init failed, continuing without tracing/metrics")
	}
	if shutdown != nil {
		defer func() { _ = shutdown(context.Background()) }()
	}

	provider, err := llm.Build(ctx, llm.ClientConfig{
		Provider:          cfg.LLMClient.Provider,
		AnthropicAPIKey:   cfg.LLMClient.Anthropic.APIKey,
		AnthropicModel:    cfg.LLMClient.Anthropic.Model,
		AnthropicBaseURL:  cfg.LLMClient.Anthropic.BaseURL,
		OpenAIAPIKey:      cfg.LLMClient.OpenAI.APIKey,
		OpenAIModel:       cfg.LLMClient.OpenAI.Model,
		OpenAIBaseURL:     cfg.LLMClient.OpenAI.BaseURL,
		GoogleAPIKey:      cfg.LLMClient.Google.APIKey,
		GoogleModel:       cfg.LLMClient.Google.Model,
		GoogleBaseURL:     cfg.LLMClient.Google.BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build llm provider")
	}

	pool, err := kgraph.OpenPool(ctx, cfg.Databases.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open postgres pool")
	}

	graph, err := kgraph.NewPostgresStore(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init knowledge graph store")
	}

	qdrantDSN := cfg.Databases.QdrantAddr
	if cfg.Databases.QdrantAPIKey != "" {
		qdrantDSN = qdrantDSN + "?api_key=" + cfg.Databases.QdrantAPIKey
	}
	vectors, err := kgraph.NewQdrantStore(qdrantDSN, "noesis_concepts", cfg.Databases.VectorDim, "cosine")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init vector store")
	}

	promptFilePath := os.Getenv("PROMPT_STORE_PATH")
	prompts, err := promptstore.NewStore(ctx, pool, promptFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init prompt store")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Databases.RedisAddr})

	memoryLog, err := memorylog.NewPostgresMemoryLog(ctx, pool, rdb, os.Getenv("MEMORY_JSONL_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init memory log")
	}

	energyMgr := energy.NewManager(cfg.Energy.MaxEnergy, cfg.Energy.RecoveryRatePerSecond)
	arb := arbiter.New(cfg.Energy.LowEnergyThreshold)

	caller := &agents.Caller{Provider: provider, Prompts: prompts, Model: ""}

	// Tool registry -----------------------------------------------------

	registry := tools.NewRegistry()
	registry.Register(cli.NewTool(cli.NewExecutor(cfg.Sandbox, cfg.Sandbox.Workdir)))
	registry.Register(web.NewTool(cfg.Web.SearXNGURL))
	registry.Register(web.NewFetchTool())
	registry.Register(web.NewScreenshotTool())
	registry.Register(patchtool.New(cfg.Sandbox.Workdir))
	registry.Register(fs.NewReadTool(cfg.Sandbox.Workdir))
	registry.Register(fs.NewWriteTool(cfg.Sandbox.Workdir))
	registry.Register(fs.NewApplyPatchTool(cfg.Sandbox.Workdir))
	allowedRoots := []string{cfg.Sandbox.Workdir}
	registry.Register(filetool.NewReadTool(allowedRoots, cfg.Sandbox.OutputTruncateByte))
	registry.Register(filetool.NewWriteTool(allowedRoots, cfg.Sandbox.OutputTruncateByte))
	registry.Register(filetool.NewPatchTool(allowedRoots, int64(cfg.Sandbox.OutputTruncateByte)))
	registry.Register(tools.NewCodeEvalTool(&cfg))
	registry.Register(multitool.NewParallel(registry))

	if cfg.Kafka.Enabled {
		if producer, err := kafka.NewProducerFromBrokers(cfg.Kafka.Brokers); err != nil {
			log.Warn().Err(err).Msg("failed to init kafka producer, skipping send_kafka_message tool")
		} else {
			registry.Register(kafka.NewSendMessageTool(producer))
		}
	}

	mcpManager := mcpclient.NewManager()
	defer mcpManager.Close()
	if err := mcpManager.RegisterFromConfig(ctx, registry, cfg.MCP); err != nil {
		log.Warn().Err(err).Msg("failed to register MCP tools")
	}

	toolExec := toolregistry.New(registry)

	// Analytics bus -------------------------------------------------------

	bus := analytics.New()
	if cfg.Kafka.Enabled {
		if sink, err := analytics.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AnalyticsTopic); err != nil {
			log.Warn().Err(err).Msg("failed to init analytics kafka sink")
		} else {
			bus.Subscribe("kafka", sink)
		}
	}

	// Integrity monitoring + value tracking -------------------------------

	integrityMonitor := integrity.New(&agents.IntegrityAgent{Caller: caller}, graph, bus)
	affectEngine := affect.NewEngine(integrityMonitor)
	valueTracker := values.New(&agents.ValueAssessmentAgent{Caller: caller}, bus)

	// Cognitive loop + tree-of-thoughts search ---------------------------

	embedder := cognition.HTTPEmbedder{Config: llm.EmbeddingConfig{
		Host:   cfg.Embedding.Host,
		APIKey: cfg.Embedding.APIKey,
		Model:  cfg.Embedding.Model,
	}}
	retriever := cognition.VectorRetriever{Store: vectors, Embedder: embedder, TopK: 5}
	concepts := cognition.VectorConceptualMemory{Store: vectors}
	browser := cognition.WebBrowserFetcher{Fetcher: web.NewFetcher()}

	loop := &cognition.Loop{
		Retriever:     retriever,
		Evaluator:     &agents.RetrievalEvaluatorAgent{Caller: caller},
		Refiner:       &agents.QueryRefinementAgent{Caller: caller},
		ToolUser:      &agents.ToolUsingAgent{Caller: caller},
		Tools:         toolExec,
		Browser:       browser,
		Summarizer:    &agents.SummarizerAgent{Caller: caller},
		Embedder:      embedder,
		Concepts:      concepts,
		Graph:         graph,
		KGExtractor:   &agents.KnowledgeGraphAgent{Caller: caller},
		Memory:        memoryLog,
		Synth:         &agents.SynthesisAgent{Caller: caller},
		Hypothesis:    &agents.HypothesisAgent{Caller: caller},
		Symbolic:      &agents.SymbolicVerifier{},
		Deductive:     &agents.DeductiveReasonerAgent{Caller: caller},
		MaxIterations: cfg.CognitiveLoopMaxIter,
	}

	tot := &cognition.TreeOfThoughts{
		Generator:       &agents.ThoughtGenerator{Caller: caller},
		Evaluator:       &agents.ThoughtEvaluatorAgent{Caller: caller},
		BranchingFactor: cfg.ToTBranchFactor,
		Depth:           cfg.ToTDepth,
		BeamWidth:       cfg.ToTBeamWidth,
	}

	// Orchestrator --------------------------------------------------------

	orch := &orchestrator.Orchestrator{
		Complexity: &agents.ComplexityAnalyzer{Caller: caller},
		Selector:   &agents.ModeSelector{Caller: caller},
		Domain:     &agents.DomainMatcher{Caller: caller},
		Tools:      registry,
		Affect:     affectEngine,
		Analytics:  bus,
	}

	// Self-evolution + micro-LLM expert roster ----------------------------

	microModels := microllm.NewManager(microllm.NewOllamaModelProvider(""), graph, os.Getenv("MICROLLM_BASE_MODEL"), os.Getenv("MICROLLM_MODEL_DIR"))
	selfEvolve := selfevolve.New(
		&agents.SelfCriticAgent{Caller: caller},
		&agents.ProcessRewardAgent{Caller: caller},
		&agents.SelfImprovementAgent{Caller: caller},
		prompts,
		microModels,
		memoryLog,
		bus,
	)

	// Pipelines -------------------------------------------------------------

	fullPipeline := &pipeline.Full{
		Planner:          &agents.PlanningAgent{Caller: caller},
		Loop:             loop,
		Master:           &agents.MasterAgent{Caller: caller},
		Critic:           &agents.SelfCriticAgent{Caller: caller},
		ProblemDiscovery: &agents.ProblemDiscoveryAgent{Caller: caller},
		SelfEvolve:       selfEvolve,
		Values:           valueTracker,
		Analytics:        bus,
	}
	conceptualPipeline := &pipeline.ConceptualReasoning{Full: &pipeline.Full{
		Planner:              &agents.PlanningAgent{Caller: caller},
		Loop:                 loop,
		Master:               &agents.MasterAgent{Caller: caller},
		Critic:               &agents.SelfCriticAgent{Caller: caller},
		ProblemDiscovery:     &agents.ProblemDiscoveryAgent{Caller: caller},
		SelfEvolve:           selfEvolve,
		Values:               valueTracker,
		Analytics:            bus,
		ReasoningInstruction: "Favor conceptual vector composition operations when they apply.",
	}}

	pipelines := map[string]engine.Pipeline{
		"simple": &pipeline.Simple{
			Router:    &agents.RouterAgent{Caller: caller},
			Direct:    &agents.DirectAnswerer{Caller: caller},
			RAG:       &agents.RAGAnswerer{Caller: caller},
			Retriever: retriever,
		},
		"full":                 fullPipeline,
		"conceptual_reasoning": conceptualPipeline,
		"parallel": &pipeline.Parallel{
			Planner:  &agents.PlanningAgent{Caller: caller},
			Loop:     loop,
			Verifier: &agents.VerifierAgent{Caller: caller},
		},
		"quantum": &pipeline.Quantum{
			Answerer:  &agents.PersonaAgent{Caller: caller},
			Integrate: &agents.IntegratedInformationAgent{Caller: caller},
		},
		"speculative": &pipeline.Speculative{
			Drafter:  &agents.DrafterAgent{Caller: caller},
			Verifier: &agents.VerifierAgent{Caller: caller},
		},
		"self_discover": &pipeline.SelfDiscover{
			Planner:    &agents.PlanningAgent{Caller: caller},
			Decompose:  &agents.DecomposeAgent{Caller: caller},
			Critique:   &agents.StepCritiqueAgent{Caller: caller},
			Synthesize: &agents.SynthesizeStepAgent{Caller: caller},
			Retriever:  retriever,
		},
		"internal_dialogue": &pipeline.InternalDialogue{
			Speaker:  &agents.DialoguePersonaAgent{Caller: caller},
			Mediator: &agents.MediatorAgent{Caller: caller},
		},
		"micro_llm_expert": &pipeline.MicroLLMExpert{
			ToolUser:  &agents.ToolUsingAgent{Caller: caller},
			Tools:     toolExec,
			Formatter: &agents.ResultFormatterAgent{Caller: caller},
		},
		"tree_of_thoughts": &pipeline.TreeOfThoughts{
			Search:          tot,
			BranchingFactor: cfg.ToTBranchFactor,
			Depth:           cfg.ToTDepth,
			BeamWidth:       cfg.ToTBeamWidth,
		},
		"iterative_correction": &pipeline.IterativeCorrection{
			Drafter:   &agents.DrafterAgent{Caller: caller},
			Verifier:  &agents.VerifierAgent{Caller: caller},
			Corrector: &agents.CorrectionAgent{Caller: caller},
		},
	}

	eng := engine.New(pipelines, arb, energyMgr)

	// Governor --------------------------------------------------------------

	evoController := &governor.EvolutionaryController{
		Benchmark:   &agents.PerformanceBenchmarkAgent{Caller: caller},
		Mapper:      &agents.CapabilityMapperAgent{Caller: caller},
		GapAnalyzer: &agents.KnowledgeGapAnalyzerAgent{Caller: caller},
		Graph:       graph,
		Memory:      memoryLog,
	}

	gov := governor.New(governor.Config{
		TickInterval:      cfg.Governor.TickInterval,
		BenchmarkInterval: time.Duration(cfg.Governor.BenchmarkIntervalSeconds) * time.Second,
		KnowledgeAcqDueAfterTopic: time.Duration(cfg.Governor.KnowledgeAcquisitionPeriod) * time.Second,
		MaintenanceInterval: time.Duration(cfg.Governor.MaintenancePeriod) * time.Second,
	}, energyMgr, evoController, selfEvolve, microModels, nil, nil, nil, integrityMonitor, nil)

	govCtx, govCancel := context.WithCancel(ctx)
	defer govCancel()
	gov.Start(govCtx)
	defer gov.Stop()

	// HTTP front door ---------------------------------------------------

	server := httpapi.NewServer(orch, eng, bus)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server,
	}

	log.Info().Str("addr", cfg.HTTPAddr).Msg("runtime listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
