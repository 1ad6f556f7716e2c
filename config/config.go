package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"webchat/logger"
)

// Config holds every runtime setting; values come from the environment with
// sane local-dev defaults.
type Config struct {
	Port          string
	MySQLDSN      string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	UploadDir     string
	UploadMaxAge  time.Duration
}

var App *Config

// Load reads .env (if present) and populates App.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env file loaded: %v", err)
	}

	App = &Config{
		Port:          getenv("PORT", "3000"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(127.0.0.1:3306)/webchat?charset=utf8mb4&parseTime=True&loc=Local"),
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGODB_DATABASE", "webchat"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		UploadMaxAge:  3 * 24 * time.Hour,
	}
	return App
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
