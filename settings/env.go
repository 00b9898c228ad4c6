package settings

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const Prefix = "CARD_TOURNEY"

// LoadEnvFiles loads .env files for the current environment. Variables already set in
// the process win over file values.
func LoadEnvFiles() {
	environment := os.Getenv(EnvKey("ENV"))
	if environment == "" {
		environment = "development"
	}

	godotenv.Load(".env." + environment + ".local")
	godotenv.Load(".env." + environment)
	godotenv.Load()
}

func GetenvStr(key string) string {
	return os.Getenv(EnvKey(key))
}

func EnvKey(str string) string {
	return fmt.Sprintf("%s_%s", Prefix, str)
}

// ParseEnv fills target from prefixed environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix + "_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
