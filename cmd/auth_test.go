package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/attend-cli/credentials"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

func TestAuthCmd_Structure(t *testing.T) {
	cmd := NewAuthCommand(createTestDeps(mockConfig()))

	assert.Equal(t, "auth", cmd.Use)
	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"set", "delete", "status"}, names)
}

func TestAuthSet(t *testing.T) {
	deps := createTestDeps(mockConfig())
	store := newMemoryStore()
	deps.Secrets = store
	var prompted string
	deps.ReadSecret = func(prompt string) (string, error) {
		prompted = prompt
		return "s3cret", nil
	}

	out, _, err := execute(t, NewAuthCommand(deps), "set", credentials.SecretPostgresPassword)
	require.NoError(t, err)

	assert.Equal(t, "postgres-password: ", prompted)
	assert.Contains(t, out, "Stored postgres-password in memory")
	v, err := store.Get(credentials.SecretPostgresPassword)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
}

func TestAuthSet_Rejects(t *testing.T) {
	t.Run("unknown secret", func(t *testing.T) {
		_, _, err := execute(t, NewAuthCommand(createTestDeps(mockConfig())), "set", "api-key")
		require.Error(t, err)
		assert.True(t, aterrors.IsInvalidConfig(err))
	})

	t.Run("empty value", func(t *testing.T) {
		_, _, err := execute(t, NewAuthCommand(createTestDeps(mockConfig())), "set", credentials.SecretRedisPassword)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no value provided")
	})

	t.Run("read failure", func(t *testing.T) {
		deps := createTestDeps(mockConfig())
		deps.ReadSecret = func(string) (string, error) { return "", errors.New("stdin closed") }
		_, _, err := execute(t, NewAuthCommand(deps), "set", credentials.SecretRedisPassword)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stdin closed")
	})
}

func TestAuthDelete(t *testing.T) {
	deps := createTestDeps(mockConfig())
	store := newMemoryStore()
	require.NoError(t, store.Set(credentials.SecretRedisPassword, "pw"))
	deps.Secrets = store

	out, _, err := execute(t, NewAuthCommand(deps), "delete", credentials.SecretRedisPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted redis-password")

	out, _, err = execute(t, NewAuthCommand(deps), "delete", credentials.SecretRedisPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "redis-password is not set")
}

func TestAuthStatus(t *testing.T) {
	deps := createTestDeps(mockConfig())
	store := newMemoryStore()
	require.NoError(t, store.Set(credentials.SecretPostgresPassword, "pw"))
	deps.Secrets = store

	out, _, err := execute(t, NewAuthCommand(deps), "status")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Store: memory", lines[0])
	assert.Regexp(t, `^SECRET\s+STATUS\s+ENV VAR$`, lines[2])
	assert.Regexp(t, `^postgres-password\s+set\s+ATTEND_SECRET_POSTGRES_PASSWORD$`, lines[3])
	assert.Regexp(t, `^redis-password\s+not set\s+ATTEND_SECRET_REDIS_PASSWORD$`, lines[4])
}
