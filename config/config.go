// Package config loads finrag's YAML configuration file.
//
// Every section is optional: missing values take the defaults returned by
// Default. Provider tokens and the index directory can also come from the
// environment (OPENAI_API_KEY, ANTHROPIC_API_KEY, FINRAG_INDEX_DIR), which
// wins over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/indexing"
	"github.com/poiesic/finrag/query"
	"github.com/poiesic/finrag/synthesis"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvIndexDir     = "FINRAG_INDEX_DIR"
)

// DefaultIndexDir is where the index lives when nothing else is configured.
const DefaultIndexDir = "./finrag_db"

// File is the top-level configuration.
type File struct {
	AI     AIConfig     `yaml:"ai"`
	Index  IndexConfig  `yaml:"index"`
	Query  QueryConfig  `yaml:"query,omitempty"`
	Policy PolicyConfig `yaml:"policy,omitempty"`
}

// AIConfig selects the embedding and answer models.
type AIConfig struct {
	EmbeddingHost     string  `yaml:"embedding_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	EmbeddingToken    string  `yaml:"embedding_token,omitempty"`
	GeneratorProvider string  `yaml:"generator_provider"` // "openai" | "anthropic"
	GeneratorHost     string  `yaml:"generator_host,omitempty"`
	GeneratorModel    string  `yaml:"generator_model"`
	GeneratorToken    string  `yaml:"generator_token,omitempty"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
}

// IndexConfig locates the index and tunes builds.
type IndexConfig struct {
	Dir       string `yaml:"dir"`
	BatchSize int    `yaml:"batch_size,omitempty"`
	Workers   int    `yaml:"workers,omitempty"` // Embedding workers, 0 for NumCPU/2
}

// QueryConfig tunes retrieval.
type QueryConfig struct {
	TopK     int     `yaml:"top_k,omitempty"`
	MinScore float32 `yaml:"min_score,omitempty"`
}

// PolicyConfig holds discrepancy thresholds.
type PolicyConfig struct {
	AmountTolerance        decimal.Decimal            `yaml:"amount_tolerance,omitempty"`
	OverdueGraceDays       int                        `yaml:"overdue_grace_days,omitempty"`
	CriticalOverdueDays    int                        `yaml:"critical_overdue_days,omitempty"`
	SignificantVariancePct decimal.Decimal            `yaml:"significant_variance_pct,omitempty"`
	SlowProcessingDays     int                        `yaml:"slow_processing_days,omitempty"`
	ClaimLimits            map[string]decimal.Decimal `yaml:"claim_limits,omitempty"`
	DefaultClaimLimit      decimal.Decimal            `yaml:"default_claim_limit,omitempty"`
	AsOf                   string                     `yaml:"as_of,omitempty"` // YYYY-MM-DD, empty for today
}

// Default returns the configuration used when no file is given.
func Default() *File {
	aiDefaults := ai.DefaultConfig()
	policy := synthesis.DefaultPolicy()
	return &File{
		AI: AIConfig{
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			EmbeddingToken:    aiDefaults.EmbeddingToken,
			GeneratorProvider: aiDefaults.GeneratorProvider,
			GeneratorHost:     aiDefaults.GeneratorHost,
			GeneratorModel:    aiDefaults.GeneratorModel,
			GeneratorToken:    aiDefaults.GeneratorToken,
			Temperature:       aiDefaults.Temperature,
			MaxTokens:         aiDefaults.MaxTokens,
		},
		Index: IndexConfig{
			Dir:       DefaultIndexDir,
			BatchSize: indexing.DefaultBatchSize,
		},
		Query: QueryConfig{
			TopK:     query.DefaultTopK,
			MinScore: query.DefaultMinScore,
		},
		Policy: PolicyConfig{
			AmountTolerance:        policy.AmountTolerance,
			OverdueGraceDays:       policy.OverdueGraceDays,
			CriticalOverdueDays:    policy.CriticalOverdueDays,
			SignificantVariancePct: policy.SignificantVariancePct,
			SlowProcessingDays:     policy.SlowProcessingDays,
			ClaimLimits:            map[string]decimal.Decimal{},
		},
	}
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path loads defaults only.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills values an explicit file left empty.
func (f *File) applyDefaults() {
	def := Default()
	f.AI.GeneratorProvider = strings.ToLower(strings.TrimSpace(f.AI.GeneratorProvider))
	if f.AI.GeneratorProvider == "" {
		f.AI.GeneratorProvider = def.AI.GeneratorProvider
	}
	// Local defaults do not apply to the hosted anthropic API
	if f.AI.GeneratorProvider == ai.ProviderAnthropic {
		if f.AI.GeneratorHost == def.AI.GeneratorHost {
			f.AI.GeneratorHost = ""
		}
		if f.AI.GeneratorToken == def.AI.GeneratorToken {
			f.AI.GeneratorToken = ""
		}
	}
	if f.AI.MaxTokens == 0 {
		f.AI.MaxTokens = def.AI.MaxTokens
	}
	if f.Index.Dir == "" {
		f.Index.Dir = def.Index.Dir
	}
	if f.Index.BatchSize == 0 {
		f.Index.BatchSize = def.Index.BatchSize
	}
	if f.Query.TopK == 0 {
		f.Query.TopK = def.Query.TopK
	}
	if f.Policy.CriticalOverdueDays == 0 {
		f.Policy.CriticalOverdueDays = def.Policy.CriticalOverdueDays
	}
	if f.Policy.SignificantVariancePct.IsZero() {
		f.Policy.SignificantVariancePct = def.Policy.SignificantVariancePct
	}
	if f.Policy.SlowProcessingDays == 0 {
		f.Policy.SlowProcessingDays = def.Policy.SlowProcessingDays
	}
}

// applyEnv overrides tokens and the index directory from the environment.
func (f *File) applyEnv(getenv func(string) string) {
	if key := getenv(EnvOpenAIKey); key != "" {
		f.AI.EmbeddingToken = key
		if f.AI.GeneratorProvider == ai.ProviderOpenAI {
			f.AI.GeneratorToken = key
		}
	}
	if key := getenv(EnvAnthropicKey); key != "" && f.AI.GeneratorProvider == ai.ProviderAnthropic {
		f.AI.GeneratorToken = key
	}
	if dir := getenv(EnvIndexDir); dir != "" {
		f.Index.Dir = dir
	}
}

// Validate checks the configuration for values no component can use.
func (f *File) Validate() error {
	if err := f.AIConfig().Validate(); err != nil {
		return err
	}
	if f.Index.Dir == "" {
		return errors.New("index: dir is required")
	}
	if f.Index.BatchSize < 1 {
		return errors.New("index: batch_size must be positive")
	}
	if f.Index.Workers < 0 {
		return errors.New("index: workers cannot be negative")
	}
	if f.Query.TopK < 1 {
		return errors.New("query: top_k must be positive")
	}
	if f.Policy.AmountTolerance.IsNegative() {
		return errors.New("policy: amount_tolerance cannot be negative")
	}
	if f.Policy.OverdueGraceDays < 0 {
		return errors.New("policy: overdue_grace_days cannot be negative")
	}
	if _, err := f.Policy.asOf(); err != nil {
		return err
	}
	return nil
}

// AIConfig converts the ai section to an ai.Config.
func (f *File) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(f.AI.EmbeddingHost),
		ai.WithEmbeddingModel(f.AI.EmbeddingModel),
		ai.WithEmbeddingToken(f.AI.EmbeddingToken),
		ai.WithGeneratorProvider(f.AI.GeneratorProvider),
		ai.WithGeneratorHost(f.AI.GeneratorHost),
		ai.WithGeneratorModel(f.AI.GeneratorModel),
		ai.WithGeneratorToken(f.AI.GeneratorToken),
		ai.WithTemperature(f.AI.Temperature),
		ai.WithMaxTokens(f.AI.MaxTokens),
	)
}

// SynthesisPolicy converts the policy section to a synthesis.Policy.
func (f *File) SynthesisPolicy() (synthesis.Policy, error) {
	asOf, err := f.Policy.asOf()
	if err != nil {
		return synthesis.Policy{}, err
	}
	limits := make(map[string]decimal.Decimal, len(f.Policy.ClaimLimits))
	for category, limit := range f.Policy.ClaimLimits {
		limits[category] = limit
	}
	return synthesis.Policy{
		AmountTolerance:        f.Policy.AmountTolerance,
		OverdueGraceDays:       f.Policy.OverdueGraceDays,
		CriticalOverdueDays:    f.Policy.CriticalOverdueDays,
		SignificantVariancePct: f.Policy.SignificantVariancePct,
		SlowProcessingDays:     f.Policy.SlowProcessingDays,
		ClaimLimits:            limits,
		DefaultClaimLimit:      f.Policy.DefaultClaimLimit,
		AsOf:                   asOf,
	}, nil
}

func (p PolicyConfig) asOf() (time.Time, error) {
	if p.AsOf == "" {
		return synthesis.DefaultPolicy().AsOf, nil
	}
	t, err := time.Parse(core.DateLayout, p.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("policy: as_of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// Marshal renders the configuration as YAML, e.g. to seed a new file.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
