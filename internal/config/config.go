package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings shared by the API and the CLI.
type Config struct {
	// KnowledgeBaseFiles lists one STIX bundle per partition.
	KnowledgeBaseFiles []string
	DatasetFile        string

	ListenPort  string
	LogLevel    string
	LoadTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
// It reports whether a .env file was found so callers can log it.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	return Config{
		KnowledgeBaseFiles: splitList(getEnv("DRIFTWATCH_KB", "data/enterprise-attack.json")),
		DatasetFile:        getEnv("DRIFTWATCH_DATASET", "data/dataset.yaml"),
		ListenPort:         getEnv("REST_API_PORT", "8080"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LoadTimeout:        time.Duration(getEnvInt("DRIFTWATCH_LOAD_TIMEOUT_SECONDS", 120)) * time.Second,
	}, envLoaded
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
