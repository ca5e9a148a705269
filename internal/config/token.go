package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// EnsureAPIToken returns the management API bearer token, generating
// and persisting one in the platform secret store on first use. The
// RELAY_API_TOKEN environment variable always wins.
func EnsureAPIToken() (string, error) {
	if v := os.Getenv("RELAY_API_TOKEN"); v != "" {
		return v, nil
	}

	if b, err := keychainGet("relay", "api_token"); err == nil {
		if token := strings.TrimSpace(string(b)); token != "" {
			return token, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := keychainSet("relay", "api_token", token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return token, nil
}
