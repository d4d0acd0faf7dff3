package remote

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// LoadSignerFromEnv reads the routing account address from the environment.
func LoadSignerFromEnv() (string, error) {
	_ = godotenv.Load() // best-effort
	addr := os.Getenv("ADAR_SIGNER_ADDRESS")
	if addr == "" {
		return "", errors.New("ADAR_SIGNER_ADDRESS not set")
	}
	return addr, nil
}
