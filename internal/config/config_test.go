package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("DOCQA_EMBED_MODEL", "")
	t.Setenv("DOCQA_LLM_MODEL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 800 {
		t.Errorf("expected chunk size 800, got %d", cfg.RAG.ChunkSize)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("expected top k 5, got %d", cfg.RAG.TopK)
	}
	if cfg.InferenceLLM.Model != "llama3:8b" {
		t.Errorf("unexpected inference model: %s", cfg.InferenceLLM.Model)
	}
	if cfg.EmbedLLM.Provider != ProviderOllama || cfg.EmbedLLM.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected embed config: %+v", cfg.EmbedLLM)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("DOCQA_EMBED_MODEL", "")
	t.Setenv("DOCQA_LLM_MODEL", "")
	t.Setenv("TEST_DOCQA_KEY", "secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
inference_llm:
  provider: openai
  model: gpt-4o-mini
  key_env: TEST_DOCQA_KEY
rag:
  top_k: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("expected top k 3, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.ChunkSize != 800 {
		t.Errorf("chunk size default lost: %d", cfg.RAG.ChunkSize)
	}
	if cfg.InferenceLLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("unexpected base url: %s", cfg.InferenceLLM.BaseURL)
	}
	if cfg.InferenceLLM.Key != "secret" {
		t.Errorf("key not read from env: %q", cfg.InferenceLLM.Key)
	}
	if cfg.EmbedLLM.Provider != ProviderOllama {
		t.Errorf("embed provider should default to ollama, got %s", cfg.EmbedLLM.Provider)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("DOCQA_EMBED_MODEL", "nomic-embed-text")
	t.Setenv("DOCQA_LLM_MODEL", "mistral")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.EmbedLLM.BaseURL != "http://gpu-box:11434" || cfg.InferenceLLM.BaseURL != "http://gpu-box:11434" {
		t.Errorf("OLLAMA_HOST not applied: %s / %s", cfg.EmbedLLM.BaseURL, cfg.InferenceLLM.BaseURL)
	}
	if cfg.EmbedLLM.Model != "nomic-embed-text" {
		t.Errorf("unexpected embed model: %s", cfg.EmbedLLM.Model)
	}
	if cfg.InferenceLLM.Model != "mistral" {
		t.Errorf("unexpected llm model: %s", cfg.InferenceLLM.Model)
	}
}

func TestLoadConfig_RejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embed_llm:\n  provider: sentence-transformers\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rag: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
