package cmd

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/attend-cli/config"
	"github.com/otherjamesbrown/attend-cli/credentials"
	"github.com/otherjamesbrown/attend-cli/pkg/sink"
)

const fixture = "testdata/meeting.tsv"

// mockConfig returns defaults adjusted for the tab-separated fixture.
func mockConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Export.Delimiter = "tab"
	return cfg
}

// recordingSink keeps every report written to it.
type recordingSink struct {
	name    string
	reports []*sink.Report
	closed  bool
	err     error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, r *sink.Report) error {
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, r)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

// memoryStore is an in-memory credentials.Store.
type memoryStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{secrets: make(map[string]string)}
}

func (m *memoryStore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.secrets[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", name, credentials.ErrSecretNotFound)
}

func (m *memoryStore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = value
	return nil
}

func (m *memoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[name]; !ok {
		return fmt.Errorf("%s: %w", name, credentials.ErrSecretNotFound)
	}
	delete(m.secrets, name)
	return nil
}

func (m *memoryStore) Description() string { return "memory" }

// createTestDeps returns deps that load cfg and open real file sinks.
func createTestDeps(cfg *config.Config) *CommandDeps {
	return &CommandDeps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		OpenSink:   sink.New,
		Secrets:    newMemoryStore(),
		ReadSecret: func(string) (string, error) { return "", nil },
	}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
