// Package credentials stores the passwords attend uses to reach its
// result sinks.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// keyringService is the service name used in the system keyring.
const keyringService = "attend-cli"

// Known secret names.
const (
	SecretPostgresPassword = "postgres-password"
	SecretRedisPassword    = "redis-password"
)

// ErrKeyringUnavailable indicates the system keyring is not available.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// ErrSecretNotFound is returned when no store holds the named secret.
var ErrSecretNotFound = fmt.Errorf("secret %w", aterrors.ErrNotFound)

// KnownSecrets lists the secret names the sinks read.
func KnownSecrets() []string {
	return []string{SecretPostgresPassword, SecretRedisPassword}
}

// ValidateName rejects names outside KnownSecrets.
func ValidateName(name string) error {
	for _, n := range KnownSecrets() {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown secret %q (known: %s)",
		aterrors.ErrInvalidConfig, name, strings.Join(KnownSecrets(), ", "))
}

// Store reads and writes named secrets.
type Store interface {
	// Get returns the secret or an error wrapping ErrSecretNotFound.
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
	Description() string
}

// KeyringStore keeps secrets in the system keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore creates a new KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Get retrieves a secret from the keyring.
func (s *KeyringStore) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := keyring.Get(keyringService, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

// Set stores a secret in the keyring, replacing any previous value.
func (s *KeyringStore) Set(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: secret %s is empty", aterrors.ErrInvalidConfig, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Set(keyringService, name, value); err != nil {
		return fmt.Errorf("%w: storing %s: %v", ErrKeyringUnavailable, name, err)
	}
	return nil
}

// Delete removes a secret. Deleting a missing secret returns ErrSecretNotFound.
func (s *KeyringStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Delete(keyringService, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s: %w", name, ErrSecretNotFound)
		}
		return fmt.Errorf("%w: deleting %s: %v", ErrKeyringUnavailable, name, err)
	}
	return nil
}

// Description returns a description of the keyring backend.
func (s *KeyringStore) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// EnvStore reads secrets from ATTEND_SECRET_<NAME> variables, where NAME
// is the secret name upper-cased with dashes turned into underscores.
// It is read-only and intended for CI.
type EnvStore struct{}

// EnvVar returns the environment variable consulted for name.
func EnvVar(name string) string {
	return "ATTEND_SECRET_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Get returns the value of the secret's environment variable.
func (EnvStore) Get(name string) (string, error) {
	if v := os.Getenv(EnvVar(name)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
}

// Set is not supported for environment secrets.
func (EnvStore) Set(name, _ string) error {
	return fmt.Errorf("cannot store %s in the environment; export %s instead", name, EnvVar(name))
}

// Delete is not supported for environment secrets.
func (EnvStore) Delete(name string) error {
	return fmt.Errorf("cannot delete %s from the environment; unset %s instead", name, EnvVar(name))
}

// Description describes the environment store.
func (EnvStore) Description() string {
	return "Environment variables (ATTEND_SECRET_*)"
}

// ChainStore reads from each store in order and writes to the last one.
type ChainStore struct {
	stores []Store
}

// NewChainStore creates a chain over stores. At least one store is required.
func NewChainStore(stores ...Store) *ChainStore {
	return &ChainStore{stores: stores}
}

// Default returns the environment store layered over the system keyring.
func Default() *ChainStore {
	return NewChainStore(EnvStore{}, NewKeyringStore())
}

// Get returns the first value found. A keyring that cannot be reached is
// reported only when no earlier store had the secret.
func (c *ChainStore) Get(name string) (string, error) {
	var lastErr error
	for _, s := range c.stores {
		v, err := s.Get(name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
}

// Set writes to the last store in the chain.
func (c *ChainStore) Set(name, value string) error {
	return c.writable().Set(name, value)
}

// Delete removes the secret from the last store in the chain.
func (c *ChainStore) Delete(name string) error {
	return c.writable().Delete(name)
}

// Description joins the descriptions of the chained stores.
func (c *ChainStore) Description() string {
	parts := make([]string, 0, len(c.stores))
	for _, s := range c.stores {
		parts = append(parts, s.Description())
	}
	return strings.Join(parts, " > ")
}

func (c *ChainStore) writable() Store {
	return c.stores[len(c.stores)-1]
}

// Lookup returns a secret, treating a missing secret as empty.
func Lookup(s Store, name string) (string, error) {
	v, err := s.Get(name)
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	return v, err
}

// Status reports, for each known secret, whether s holds it.
func Status(s Store) map[string]bool {
	out := make(map[string]bool, len(KnownSecrets()))
	for _, name := range KnownSecrets() {
		_, err := s.Get(name)
		out[name] = err == nil
	}
	return out
}

// SortedNames returns the keys of m in order.
func SortedNames(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
