// Package config loads application settings from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/store"
)

// Config is the full application configuration.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string

	// DBPath is the SQLite database file.
	DBPath string

	// ChunkSize is the approximate retrieval chunk length in bytes
	// (chunks break on whitespace); ChunkCount is the number of
	// excerpts fetched per query.
	ChunkSize  int
	ChunkCount int

	// TargetTopicCount is the topic count suggested to extraction.
	TargetTopicCount int

	// IterationCap bounds feedback rounds before auto-confirmation.
	IterationCap int

	// ExtractionAttempts bounds extraction retries.
	ExtractionAttempts int

	// QuestionCount is the default quiz length.
	QuestionCount int

	// DifficultyMix is the relative share per difficulty tag.
	DifficultyMix map[quizgen.Difficulty]float64

	LLM llm.Config
}

// Load reads .env (when present) and then the environment. A missing
// .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPath := os.Getenv("QUIZFORGE_DB")
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dbPath = p
	}

	cfg := &Config{
		HTTPAddr:           envOr("QUIZFORGE_HTTP_ADDR", ":8080"),
		DBPath:             dbPath,
		ChunkSize:          envIntOr("QUIZFORGE_CHUNK_SIZE", 200),
		ChunkCount:         envIntOr("QUIZFORGE_CHUNK_COUNT", 8),
		TargetTopicCount:   envIntOr("QUIZFORGE_TARGET_TOPICS", 5),
		IterationCap:       envIntOr("QUIZFORGE_ITERATION_CAP", 10),
		ExtractionAttempts: envIntOr("QUIZFORGE_EXTRACTION_ATTEMPTS", 2),
		QuestionCount:      envIntOr("QUIZFORGE_QUESTION_COUNT", 10),
		DifficultyMix:      difficultyMixFromEnv(),
		LLM:                llm.ConfigFromEnv(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IterationCap < 1 {
		return fmt.Errorf("QUIZFORGE_ITERATION_CAP must be at least 1, got %d", c.IterationCap)
	}
	if c.QuestionCount < 1 {
		return fmt.Errorf("QUIZFORGE_QUESTION_COUNT must be at least 1, got %d", c.QuestionCount)
	}
	if c.TargetTopicCount < 1 {
		return fmt.Errorf("QUIZFORGE_TARGET_TOPICS must be at least 1, got %d", c.TargetTopicCount)
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// difficultyMixFromEnv parses QUIZFORGE_DIFFICULTY_MIX, e.g.
// "easy:0.25,medium:0.5,hard:0.25". Malformed or missing values keep
// the default mix.
func difficultyMixFromEnv() map[quizgen.Difficulty]float64 {
	def := quizgen.DefaultConfig().DifficultyMix
	raw := os.Getenv("QUIZFORGE_DIFFICULTY_MIX")
	if raw == "" {
		return def
	}

	mix := make(map[quizgen.Difficulty]float64)
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return def
		}
		share, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || share < 0 {
			return def
		}
		switch d := quizgen.Difficulty(strings.TrimSpace(key)); d {
		case quizgen.DifficultyEasy, quizgen.DifficultyMedium, quizgen.DifficultyHard:
			mix[d] = share
		default:
			return def
		}
	}
	if len(mix) == 0 {
		return def
	}
	return mix
}

func envIntOr(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
