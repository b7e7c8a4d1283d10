package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/attend-cli/credentials"
)

// NewAuthCommand creates the auth command and its subcommands.
func NewAuthCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage sink credentials",
		Long: `Manage the passwords attend uses to reach the PostgreSQL and Redis sinks.

Secrets are stored in the system keyring (macOS Keychain, Windows
Credential Manager, Linux Secret Service). An ATTEND_SECRET_<NAME>
environment variable takes precedence over the keyring, e.g.
ATTEND_SECRET_POSTGRES_PASSWORD.

Known secrets:
  postgres-password   Password for sink.postgres.user
  redis-password      Password for sink.redis.username`,
	}

	cmd.AddCommand(newAuthSetCommand(deps))
	cmd.AddCommand(newAuthDeleteCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	return cmd
}

func newAuthSetCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <secret>",
		Short: "Store a secret in the keyring",
		Long: `Prompt for a secret and store it in the system keyring. Input is hidden
when stdin is a terminal; otherwise one line is read from stdin.

Examples:
  attend auth set postgres-password
  echo "$PASSWORD" | attend auth set redis-password`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentials.KnownSecrets(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthSet(cmd.OutOrStdout(), deps, args[0])
		},
	}
}

func newAuthDeleteCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:       "delete <secret>",
		Short:     "Remove a secret from the keyring",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentials.KnownSecrets(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthDelete(cmd.OutOrStdout(), deps, args[0])
		},
	}
}

func newAuthStatusCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which secrets are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd.OutOrStdout(), deps)
		},
	}
}

func secretStore(deps *CommandDeps) credentials.Store {
	if deps.Secrets == nil {
		return credentials.Default()
	}
	return deps.Secrets
}

func runAuthSet(out io.Writer, deps *CommandDeps, name string) error {
	if err := credentials.ValidateName(name); err != nil {
		return err
	}
	read := deps.ReadSecret
	if read == nil {
		read = readSecretFromTerminal
	}
	value, err := read(fmt.Sprintf("%s: ", name))
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("no value provided for %s", name)
	}

	store := secretStore(deps)
	if err := store.Set(name, value); err != nil {
		return fmt.Errorf("storing %s: %w", name, err)
	}
	fmt.Fprintf(out, "Stored %s in %s\n", name, store.Description())
	return nil
}

func runAuthDelete(out io.Writer, deps *CommandDeps, name string) error {
	if err := credentials.ValidateName(name); err != nil {
		return err
	}
	store := secretStore(deps)
	if err := store.Delete(name); err != nil {
		if errors.Is(err, credentials.ErrSecretNotFound) {
			fmt.Fprintf(out, "%s is not set\n", name)
			return nil
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	fmt.Fprintf(out, "Deleted %s\n", name)
	return nil
}

func runAuthStatus(out io.Writer, deps *CommandDeps) error {
	store := secretStore(deps)
	status := credentials.Status(store)

	fmt.Fprintf(out, "Store: %s\n\n", store.Description())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECRET\tSTATUS\tENV VAR")
	for _, name := range credentials.SortedNames(status) {
		state := "not set"
		if status[name] {
			state = "set"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, state, credentials.EnvVar(name))
	}
	return tw.Flush()
}
