// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
}

// ChunkingConfig exposes the chunk builder tunables. The threshold constants
// are empirical defaults carried over from production use.
type ChunkingConfig struct {
	BaseSimilarityThreshold float64
	MaxSimilarityThreshold  float64
	MaxChars                int
	MinChars                int
	MeanOnClose             bool
}

type RetrievalConfig struct {
	TopK          int
	MinSimilarity float64
}

type Config struct {
	PostgresDSN string

	Embeddings EmbeddingConfig
	Chunking   ChunkingConfig
	Retrieval  RetrievalConfig

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func Load() Config {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/ragcore?sslmode=disable"),
		Embeddings: EmbeddingConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),
		},
		Chunking: ChunkingConfig{
			BaseSimilarityThreshold: getEnvFloat("CHUNK_BASE_SIMILARITY_THRESHOLD", 0.22),
			MaxSimilarityThreshold:  getEnvFloat("CHUNK_MAX_SIMILARITY_THRESHOLD", 0.28),
			MaxChars:                getEnvInt("CHUNK_MAX_CHARS", 512),
			MinChars:                getEnvInt("CHUNK_MIN_CHARS", 100),
			MeanOnClose:             getEnvBool("CHUNK_MEAN_ON_CLOSE", false),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvInt("RETRIEVAL_TOP_K", 4),
			MinSimilarity: getEnvFloat("RETRIEVAL_MIN_SIMILARITY", 0.2),
		},
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
