package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// InitializeEnvFile loads ENV_FILE, or .env when unset. Variables already in
// the environment win over the file.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	envFile := utils.GetEnvTrimmedOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		logger.Warn("No env file found or failed to load it", "file", envFile, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from env file", "file", envFile)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
