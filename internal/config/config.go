package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	AppPort     string
	MongoURI    string
	MongoDBName string
	SecretKey   string
	IsProd      bool
}

// Load reads configuration from the environment (and .env if present).
// MONGO_URI, MONGO_DB_NAME and SECRET_KEY are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:     env("APP_PORT", "5000"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDBName: os.Getenv("MONGO_DB_NAME"),
		SecretKey:   os.Getenv("SECRET_KEY"),
		IsProd:      os.Getenv("IS_PROD") == "true",
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if cfg.MongoDBName == "" {
		missing = append(missing, "MONGO_DB_NAME")
	}
	if cfg.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
