package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	defaultOllamaURL      = "http://localhost:11434"
	defaultOpenAIURL      = "https://api.openai.com/v1"
	defaultEmbeddingModel = "all-minilm"
	defaultInferenceModel = "llama3:8b"
	defaultKeyEnv         = "OPENAI_API_KEY"
	defaultBatchSize      = 32
	defaultChunkSize      = 800
	defaultTopK           = 5
	defaultLogLevel       = "info"
	defaultLogFile        = "docqa.log"
)

// LLMConfig describes one external model endpoint.
type LLMConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Key         string `yaml:"key,omitempty" json:"-"`
	KeyEnv      string `yaml:"key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
}

type RAGConfig struct {
	ChunkSize     int  `yaml:"chunk_size"`
	TopK          int  `yaml:"top_k"`
	ShowAllChunks bool `yaml:"show_all_chunks"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	EmbedLLM     LLMConfig `yaml:"embed_llm"`
	InferenceLLM LLMConfig `yaml:"inference_llm"`
	RAG          RAGConfig `yaml:"rag"`
	Log          LogConfig `yaml:"log"`
}

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) Validate() error {
	for name, llm := range map[string]LLMConfig{"embed_llm": c.EmbedLLM, "inference_llm": c.InferenceLLM} {
		if llm.Provider != ProviderOllama && llm.Provider != ProviderOpenAI {
			return fmt.Errorf("%s: unknown provider %q", name, llm.Provider)
		}
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	return nil
}

func (c *Config) applyEnv() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		for _, llm := range []*LLMConfig{&c.EmbedLLM, &c.InferenceLLM} {
			if llm.Provider == "" || llm.Provider == ProviderOllama {
				llm.BaseURL = host
			}
		}
	}
	if m := os.Getenv("DOCQA_EMBED_MODEL"); m != "" {
		c.EmbedLLM.Model = m
	}
	if m := os.Getenv("DOCQA_LLM_MODEL"); m != "" {
		c.InferenceLLM.Model = m
	}
}

func (c *Config) applyDefaults() {
	c.EmbedLLM.applyDefaults(defaultEmbeddingModel)
	c.InferenceLLM.applyDefaults(defaultInferenceModel)
	if c.EmbedLLM.BatchSize == 0 {
		c.EmbedLLM.BatchSize = defaultBatchSize
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.File == "" {
		c.Log.File = defaultLogFile
	}
}

func (l *LLMConfig) applyDefaults(model string) {
	if l.Provider == "" {
		l.Provider = ProviderOllama
	}
	if l.Model == "" {
		l.Model = model
	}
	if l.BaseURL == "" {
		if l.Provider == ProviderOpenAI {
			l.BaseURL = defaultOpenAIURL
		} else {
			l.BaseURL = defaultOllamaURL
		}
	}
	if l.Provider == ProviderOpenAI {
		if l.KeyEnv == "" {
			l.KeyEnv = defaultKeyEnv
		}
		if l.Key == "" {
			l.Key = os.Getenv(l.KeyEnv)
		}
	}
}
