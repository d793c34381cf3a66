package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

func envFilePath() string {
	if p := strings.TrimSpace(os.Getenv("DINO_ENV_FILE")); p != "" {
		return p
	}
	return defaultEnvFile
}

// loadEnvFile loads KEY=VALUE pairs from path without overriding variables
// already present in the process environment. It reports whether the file
// existed and parsed.
func loadEnvFile(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return godotenv.Load(path) == nil
}
