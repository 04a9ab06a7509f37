package siteqa

import (
	"time"
)

// Config holds all tunable settings. It is built once at startup and passed
// to component constructors; components never read the environment.
type Config struct {
	Site      SiteConfig      `toml:"site"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	LLM       LLMConfig       `toml:"llm"`
	Retry     RetryConfig     `toml:"retry"`
}

// SiteConfig describes the website to scrape.
type SiteConfig struct {
	URL               string  `toml:"url"`
	Organization      string  `toml:"organization"`
	MaxPages          int     `toml:"max_pages"`
	Concurrency       int     `toml:"concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ChunkingConfig controls how documents are split into chunks.
type ChunkingConfig struct {
	Size             int `toml:"size"`
	Overlap          int `toml:"overlap"`
	MinDocumentChars int `toml:"min_document_chars"`
}

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	Provider    string `toml:"provider"` // gemini or hashing
	Model       string `toml:"model"`
	Dimensions  int    `toml:"dimensions"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
}

// IndexConfig names the persisted index collection.
type IndexConfig struct {
	Collection string `toml:"collection"`
}

// RetrievalConfig controls evidence selection.
type RetrievalConfig struct {
	TopK                int     `toml:"top_k"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`

	// DedupThreshold is the word-set similarity at or above which two
	// passages from the same source are considered near-identical.
	DedupThreshold float64 `toml:"dedup_threshold"`
}

// LLMConfig controls answer synthesis.
type LLMConfig struct {
	Provider           string   `toml:"provider"` // gemini or anthropic
	Model              string   `toml:"model"`
	Temperature        float64  `toml:"temperature"`
	MaxTokens          int      `toml:"max_tokens"`
	MaxContextChars    int      `toml:"max_context_chars"`
	Timeout            Duration `toml:"timeout"`
	NoAnswerPhrases    []string `toml:"no_answer_phrases"`
	InsufficientAnswer string   `toml:"insufficient_answer"`
}

// RetryConfig controls retries of upstream calls. Each delay is one retry.
type RetryConfig struct {
	Delays []Duration `toml:"delays"`
}

// Durations returns the retry delays as time.Duration values.
func (c RetryConfig) Durations() []time.Duration {
	out := make([]time.Duration, len(c.Delays))
	for i, d := range c.Delays {
		out[i] = d.Duration()
	}
	return out
}

// Duration is a time.Duration read from text such as "30s" or "1m30s".
type Duration time.Duration

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return Errorf(ECONFIG, "invalid duration %q", string(text))
	}
	*d = Duration(v)
	return nil
}

// Default configuration values.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultMinDocumentChars    = 50
	DefaultTopK                = 10
	DefaultSimilarityThreshold = 0.2
	DefaultDedupThreshold      = 0.9
	DefaultCollection          = "site"
	DefaultInsufficientAnswer  = "I don't have information about that in the website content available to me."
)

// DefaultNoAnswerPhrases are phrases that mark a model reply as not answered
// from the supplied context.
var DefaultNoAnswerPhrases = []string{
	"i don't have information",
	"i do not have information",
	"i don't know",
	"i do not know",
	"not mentioned in the context",
	"the context does not",
	"the provided context does not",
}

// maxTemperatures holds the highest sampling temperature each completion
// provider accepts.
var maxTemperatures = map[string]float64{
	"gemini":    2,
	"anthropic": 1,
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Organization:      "the organization",
			MaxPages:          50,
			Concurrency:       4,
			RequestsPerSecond: 1,
		},
		Chunking: ChunkingConfig{
			Size:             DefaultChunkSize,
			Overlap:          DefaultChunkOverlap,
			MinDocumentChars: DefaultMinDocumentChars,
		},
		Embedding: EmbeddingConfig{
			Provider:    "gemini",
			Model:       "gemini-embedding-001",
			Dimensions:  768,
			BatchSize:   64,
			Concurrency: 4,
		},
		Index: IndexConfig{
			Collection: DefaultCollection,
		},
		Retrieval: RetrievalConfig{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
			DedupThreshold:      DefaultDedupThreshold,
		},
		LLM: LLMConfig{
			Provider:           "gemini",
			Model:              "gemini-2.5-flash",
			Temperature:        0.2,
			MaxTokens:          1024,
			MaxContextChars:    12000,
			Timeout:            Duration(30 * time.Second),
			NoAnswerPhrases:    append([]string(nil), DefaultNoAnswerPhrases...),
			InsufficientAnswer: DefaultInsufficientAnswer,
		},
		Retry: RetryConfig{
			Delays: []Duration{
				Duration(1 * time.Second),
				Duration(2 * time.Second),
				Duration(4 * time.Second),
			},
		},
	}
}

// Validate returns ECONFIG if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return Errorf(ECONFIG, "chunking.size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return Errorf(ECONFIG, "chunking.overlap must be in [0, chunking.size)")
	}
	if c.Chunking.MinDocumentChars < 0 {
		return Errorf(ECONFIG, "chunking.min_document_chars must not be negative")
	}

	switch c.Embedding.Provider {
	case "gemini", "hashing":
	default:
		return Errorf(ECONFIG, "embedding.provider %q not supported", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return Errorf(ECONFIG, "embedding.dimensions must be positive")
	}
	if c.Embedding.BatchSize <= 0 {
		return Errorf(ECONFIG, "embedding.batch_size must be positive")
	}
	if c.Embedding.Concurrency <= 0 {
		return Errorf(ECONFIG, "embedding.concurrency must be positive")
	}

	if c.Index.Collection == "" {
		return Errorf(ECONFIG, "index.collection required")
	}

	if c.Retrieval.TopK <= 0 {
		return Errorf(ECONFIG, "retrieval.top_k must be positive")
	}
	if c.Retrieval.SimilarityThreshold < -1 || c.Retrieval.SimilarityThreshold > 1 {
		return Errorf(ECONFIG, "retrieval.similarity_threshold must be in [-1, 1]")
	}
	if c.Retrieval.DedupThreshold <= 0 || c.Retrieval.DedupThreshold > 1 {
		return Errorf(ECONFIG, "retrieval.dedup_threshold must be in (0, 1]")
	}

	maxTemperature, ok := maxTemperatures[c.LLM.Provider]
	if !ok {
		return Errorf(ECONFIG, "llm.provider %q not supported", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return Errorf(ECONFIG, "llm.model required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > maxTemperature {
		return Errorf(ECONFIG, "llm.temperature must be in [0, %g] for provider %s", maxTemperature, c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return Errorf(ECONFIG, "llm.max_tokens must be positive")
	}
	if c.LLM.MaxContextChars < 0 {
		return Errorf(ECONFIG, "llm.max_context_chars must not be negative")
	}
	if c.LLM.Timeout <= 0 {
		return Errorf(ECONFIG, "llm.timeout must be positive")
	}
	if c.LLM.InsufficientAnswer == "" {
		return Errorf(ECONFIG, "llm.insufficient_answer required")
	}

	for _, d := range c.Retry.Delays {
		if d < 0 {
			return Errorf(ECONFIG, "retry.delays must not be negative")
		}
	}

	if c.Site.MaxPages < 0 {
		return Errorf(ECONFIG, "site.max_pages must not be negative")
	}
	if c.Site.Concurrency <= 0 {
		return Errorf(ECONFIG, "site.concurrency must be positive")
	}
	if c.Site.RequestsPerSecond <= 0 {
		return Errorf(ECONFIG, "site.requests_per_second must be positive")
	}
	return nil
}
