package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Neo4jURI        string
	Neo4jUser       string
	Neo4jPassword   string
	WorkerCount     int
	CacheSize       int
	ResourceBaseURL string
	LogLevel        zerolog.Level
}

// Load reads configuration from environment variables and the optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/cartographer?sslmode=disable"),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		WorkerCount:     getEnvInt("WORKER_COUNT", 4),
		CacheSize:       getEnvInt("CACHE_SIZE", 32),
		ResourceBaseURL: getEnv("RESOURCE_BASE_URL", ""),
		LogLevel:        getEnvLevel("LOG_LEVEL", zerolog.InfoLevel),
	}
}

// LoadTagEdits reads a YAML file of player tag corrections:
//
//	remove: [SWE]
//	set:
//	  - {tag: DAN, player: alice}
func LoadTagEdits(path string) (savegame.TagEdits, error) {
	var edits savegame.TagEdits
	data, err := os.ReadFile(path)
	if err != nil {
		return edits, fmt.Errorf("read tag edits: %w", err)
	}
	if err := yaml.Unmarshal(data, &edits); err != nil {
		return edits, fmt.Errorf("decode tag edits %s: %w", path, err)
	}
	for i, a := range edits.Set {
		if a.Tag == "" || a.Player == "" {
			return edits, fmt.Errorf("decode tag edits %s: entry %d needs both tag and player", path, i)
		}
	}
	return edits, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvLevel(key string, fallback zerolog.Level) zerolog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	lvl, err := zerolog.ParseLevel(v)
	if err != nil {
		log.Warn().Str("value", v).Msg("Unknown log level, using default")
		return fallback
	}
	return lvl
}
