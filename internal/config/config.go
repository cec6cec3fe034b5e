// Package config loads runtime configuration for the cognitive orchestration
// runtime from environment variables (with an optional .env overlay) and an
// optional config.yaml for structured collaborator settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v3"
)

// LLMClientConfig selects and configures the default LLMProvider.
type LLMClientConfig struct {
	Provider string `yaml:"provider"` // "anthropic", "openai", or "google"

	Anthropic struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"anthropic"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	Google struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"google"`
}

// DatabaseConfig describes the DSNs for the persistence backends.
type DatabaseConfig struct {
	PostgresDSN string `yaml:"postgresDSN"` // KnowledgeGraphStore, PromptStore, MemoryLog
	RedisAddr   string `yaml:"redisAddr"`   // working-memory session cache
	QdrantAddr  string `yaml:"qdrantAddr"`  // VectorStore
	QdrantAPIKey string `yaml:"qdrantAPIKey"`
	VectorDim   int    `yaml:"vectorDimensions"`
}

// KafkaConfig configures the secondary AnalyticsBus sink.
type KafkaConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Brokers        string `yaml:"brokers"`
	AnalyticsTopic string `yaml:"analyticsTopic"`
}

// EnergyConfig parameterizes the CognitiveEnergyManager.
type EnergyConfig struct {
	MaxEnergy            float64 `yaml:"maxEnergy"`
	RecoveryRatePerSecond float64 `yaml:"recoveryRatePerSecond"`
	LowEnergyThreshold   float64 `yaml:"lowEnergyThreshold"`
}

// GovernorConfig parameterizes the System Governor's background loop.
type GovernorConfig struct {
	TickInterval              time.Duration `yaml:"-"`
	TickIntervalSeconds        int           `yaml:"tickIntervalSeconds"`
	BenchmarkIntervalSeconds   int           `yaml:"benchmarkIntervalSeconds"`
	KnowledgeAcquisitionPeriod int           `yaml:"knowledgeAcquisitionIntervalSeconds"`
	MaintenancePeriod          int           `yaml:"maintenanceIntervalSeconds"`
}

// SandboxConfig controls the SandboxManager's command executor.
type SandboxConfig struct {
	Workdir           string   `yaml:"workdir"`
	MaxCommandSeconds int      `yaml:"maxCommandSeconds"`
	OutputTruncateByte int     `yaml:"outputTruncateBytes"`
	BlockBinaries     []string `yaml:"blockBinaries"`
}

// WebConfig configures the web-search / browser tools used by the cognitive loop.
type WebConfig struct {
	SearXNGURL string `yaml:"searXNGURL"`
}

// EmbeddingConfig points at the OpenAI-compatible embeddings endpoint used
// by ConceptualMemory and vector retrieval.
type EmbeddingConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// ObsConfig configures the OpenTelemetry tracing and metrics exporters.
type ObsConfig struct {
	OTLP           string `yaml:"otlp"`
	ServiceName    string `yaml:"serviceName"`
	ServiceVersion string `yaml:"serviceVersion"`
	Environment    string `yaml:"environment"`
}

// MCPServerConfig describes one Model Context Protocol server to connect to
// for dynamic tool (Specialist_*) discovery.
type MCPServerConfig struct {
	Name             string            `yaml:"name"`
	Command          string            `yaml:"command"`
	Args             []string          `yaml:"args"`
	Env              map[string]string `yaml:"env"`
	KeepAliveSeconds int               `yaml:"keepAliveSeconds"`
	URL              string            `yaml:"url"`
	Headers          map[string]string `yaml:"headers"`
	BearerToken      string            `yaml:"bearerToken"`
	Origin           string            `yaml:"origin"`
	ProtocolVersion  string            `yaml:"protocolVersion"`
	HTTP             struct {
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		ProxyURL       string `yaml:"proxyURL"`
		TLS            struct {
			InsecureSkipVerify bool `yaml:"insecureSkipVerify"`
		} `yaml:"tls"`
	} `yaml:"http"`
}

// MCPConfig is the list of MCP servers to register tools from.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// Config is the complete runtime configuration.
type Config struct {
	LogLevel string `yaml:"logLevel"`
	LogPath  string `yaml:"logPath"`

	HTTPAddr string `yaml:"httpAddr"`

	LLMClient LLMClientConfig `yaml:"llmClient"`
	Databases DatabaseConfig  `yaml:"databases"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Energy    EnergyConfig    `yaml:"energy"`
	Governor  GovernorConfig  `yaml:"governor"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Web       WebConfig       `yaml:"web"`
	MCP       MCPConfig       `yaml:"mcp"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Obs       ObsConfig       `yaml:"obs"`

	MaxSteps             int `yaml:"maxSteps"`
	ToTBeamWidth         int `yaml:"totBeamWidth"`
	ToTBranchFactor      int `yaml:"totBranchFactor"`
	ToTDepth             int `yaml:"totDepth"`
	CognitiveLoopMaxIter int `yaml:"cognitiveLoopMaxIterations"`
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
	}
	return def
}

// Load reads configuration from the environment (with an optional .env
// overlay), with defaults for unset variables, then from an optional
// config.yaml for collaborator settings not suited to single env vars (MCP
// servers), then validates the provider name and WORKDIR.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{
		LogLevel: getenv("LOG_LEVEL", "info"),
		LogPath:  getenv("LOG_PATH", ""),
		HTTPAddr: getenv("HTTP_ADDR", ":8085"),
	}

	cfg.LLMClient.Provider = strings.ToLower(getenv("LLM_PROVIDER", "anthropic"))
	cfg.LLMClient.Anthropic.APIKey = getenv("ANTHROPIC_API_KEY", "")
	cfg.LLMClient.Anthropic.Model = getenv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	cfg.LLMClient.Anthropic.BaseURL = getenv("ANTHROPIC_BASE_URL", "")
	cfg.LLMClient.OpenAI.APIKey = getenv("OPENAI_API_KEY", "")
	cfg.LLMClient.OpenAI.Model = getenv("OPENAI_MODEL", "gpt-4o-mini")
	cfg.LLMClient.OpenAI.BaseURL = getenv("OPENAI_BASE_URL", "")
	cfg.LLMClient.Google.APIKey = getenv("GOOGLE_LLM_API_KEY", "")
	cfg.LLMClient.Google.Model = getenv("GOOGLE_LLM_MODEL", "gemini-2.0-flash")
	cfg.LLMClient.Google.BaseURL = getenv("GOOGLE_LLM_BASE_URL", "")

	cfg.Databases.PostgresDSN = getenv("DATABASE_URL", "")
	cfg.Databases.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.Databases.QdrantAddr = getenv("QDRANT_ADDR", "localhost:6334")
	cfg.Databases.QdrantAPIKey = getenv("QDRANT_API_KEY", "")
	cfg.Databases.VectorDim = getenvInt("VECTOR_DIMENSIONS", 1536)

	cfg.Kafka.Enabled = getenvBool("KAFKA_ENABLED", false)
	cfg.Kafka.Brokers = getenv("KAFKA_BROKERS", "localhost:9092")
	cfg.Kafka.AnalyticsTopic = getenv("KAFKA_ANALYTICS_TOPIC", "cognition.analytics")

	cfg.Energy.MaxEnergy = getenvFloat("ENERGY_MAX", 100.0)
	cfg.Energy.RecoveryRatePerSecond = getenvFloat("ENERGY_RECOVERY_PER_SECOND", 0.1)
	cfg.Energy.LowEnergyThreshold = getenvFloat("ENERGY_LOW_THRESHOLD", 40.0)

	cfg.Governor.TickIntervalSeconds = getenvInt("GOVERNOR_TICK_SECONDS", 5)
	cfg.Governor.BenchmarkIntervalSeconds = getenvInt("GOVERNOR_BENCHMARK_SECONDS", 3600)
	cfg.Governor.KnowledgeAcquisitionPeriod = getenvInt("GOVERNOR_KNOWLEDGE_SECONDS", 3600)
	cfg.Governor.MaintenancePeriod = getenvInt("GOVERNOR_MAINTENANCE_SECONDS", 120)
	cfg.Governor.TickInterval = time.Duration(cfg.Governor.TickIntervalSeconds) * time.Second

	cfg.Sandbox.Workdir = getenv("WORKDIR", "")
	cfg.Sandbox.MaxCommandSeconds = getenvInt("MAX_COMMAND_SECONDS", 30)
	cfg.Sandbox.OutputTruncateByte = getenvInt("OUTPUT_TRUNCATE_BYTES", 64*1024)
	if v := getenv("BLOCK_BINARIES", ""); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Sandbox.BlockBinaries = append(cfg.Sandbox.BlockBinaries, p)
			}
		}
	}

	cfg.Web.SearXNGURL = getenv("SEARXNG_URL", "http://localhost:8080")

	cfg.Embedding.Host = getenv("EMBEDDING_HOST", "http://localhost:11434")
	cfg.Embedding.APIKey = getenv("EMBEDDING_API_KEY", "")
	cfg.Embedding.Model = getenv("EMBEDDING_MODEL", "nomic-embed-text-v1.5")

	cfg.Obs.OTLP = getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.Obs.ServiceName = getenv("OTEL_SERVICE_NAME", "noesis")
	cfg.Obs.ServiceVersion = getenv("SERVICE_VERSION", "dev")
	cfg.Obs.Environment = getenv("ENVIRONMENT", "dev")

	cfg.MaxSteps = getenvInt("MAX_STEPS", 8)
	cfg.ToTBeamWidth = getenvInt("TOT_BEAM_WIDTH", 3)
	cfg.ToTBranchFactor = getenvInt("TOT_BRANCH_FACTOR", 3)
	cfg.ToTDepth = getenvInt("TOT_DEPTH", 3)
	cfg.CognitiveLoopMaxIter = getenvInt("COGNITIVE_LOOP_MAX_ITERATIONS", 3)

	if err := loadYAMLOverlay(&cfg); err != nil {
		return Config{}, err
	}

	switch cfg.LLMClient.Provider {
	case "anthropic", "openai", "google":
	default:
		return Config{}, fmt.Errorf("llm provider must be one of anthropic, openai, or google (got %q)", cfg.LLMClient.Provider)
	}

	if cfg.Sandbox.Workdir == "" {
		return Config{}, errors.New("WORKDIR is required (set in .env or environment)")
	}
	absWD, err := filepath.Abs(cfg.Sandbox.Workdir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve WORKDIR: %w", err)
	}
	cfg.Sandbox.Workdir = absWD

	return cfg, nil
}

// loadYAMLOverlay merges an optional config.yaml (path from CONFIG_FILE, else
// ./config.yaml) into cfg for settings that don't fit a single env var, such
// as the MCP server list.
func loadYAMLOverlay(cfg *Config) error {
	path := getenv("CONFIG_FILE", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if len(overlay.MCP.Servers) > 0 {
		cfg.MCP.Servers = overlay.MCP.Servers
	}
	log.Info().Str("path", path).Msg("config_yaml_overlay_applied")
	return nil
}
