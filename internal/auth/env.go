package auth

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// ClientIDEnv names the environment variable holding the OAuth app id.
const ClientIDEnv = "GITHUB_OAUTH_CLIENT_ID"

// ClientID resolves the OAuth client id. A .env file in the working
// directory is loaded first; variables already set in the environment
// win over it. The environment wins over fallback (the config value).
func ClientID(fallback string, logger *slog.Logger) string {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env", "err", err)
	}
	if id := os.Getenv(ClientIDEnv); id != "" {
		return id
	}
	if fallback == "" {
		logger.Error("OAuth client id not configured", "env", ClientIDEnv)
	}
	return fallback
}
