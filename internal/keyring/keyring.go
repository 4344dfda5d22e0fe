// Package keyring provides access to the system keychain for storing bot secrets.
package keyring

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "fictionbot"

// Secret represents a named secret stored in the keychain.
type Secret string

const (
	// Telegram is the keychain entry for the Telegram bot token.
	Telegram Secret = "telegram-bot-token"
	// OpenRouter is the keychain entry for the OpenRouter API key.
	OpenRouter Secret = "openrouter-api-key"
	// Anthropic is the keychain entry for the Anthropic API key.
	Anthropic Secret = "anthropic-api-key"
)

// AllSecrets returns all known secrets for iteration.
func AllSecrets() []Secret {
	return []Secret{Telegram, OpenRouter, Anthropic}
}

// DisplayName returns a human-readable name for the secret.
func (s Secret) DisplayName() string {
	switch s {
	case Telegram:
		return "telegram"
	case OpenRouter:
		return "openrouter"
	case Anthropic:
		return "anthropic"
	default:
		return string(s)
	}
}

// Get retrieves a secret from the system keychain.
func Get(secret Secret) (string, error) {
	value, err := keyring.Get(serviceName, string(secret))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", secret.DisplayName(), err)
	}

	return value, nil
}

// Set stores a secret in the system keychain.
func Set(secret Secret, value string) error {
	if err := keyring.Set(serviceName, string(secret), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", secret.DisplayName(), err)
	}

	return nil
}

// IsSet checks if a secret exists in the keychain.
func IsSet(secret Secret) bool {
	_, err := keyring.Get(serviceName, string(secret))

	return err == nil
}

// Lookup returns the keychain value when current is empty, and current otherwise.
func Lookup(current string, secret Secret) string {
	if current != "" {
		return current
	}
	value, err := keyring.Get(serviceName, string(secret))
	if err != nil {
		return ""
	}
	return value
}

// SecretFromName maps a display name (e.g. "telegram") to a Secret.
func SecretFromName(name string) (Secret, error) {
	for _, s := range AllSecrets() {
		if s.DisplayName() == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown secret: %s (want telegram, openrouter or anthropic)", name)
}
