// delegatectl drives the registry and the credential store from the command
// line. It runs in-process against the same ledger database and signer
// configuration as the delegate service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/delegate/internal/app"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}

// run executes one command line. The core is closed even when the command
// fails, which cobra's post-run hooks do not guarantee.
func run(args []string, stdout, stderr io.Writer) error {
	cmd, e := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if e.core != nil {
		if cerr := e.core.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// env carries what every subcommand needs. It is filled by the root
// command's PersistentPreRunE.
type env struct {
	cfg    app.Config
	logger *slog.Logger
	core   *app.Core
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "delegatectl",
		Short: "Manage registered applications, delegatees and credentials.",
		Long: `delegatectl registers applications on the ledger, manages their versions
and delegatees, and issues or verifies credentials signed by the delegated key.

Writes are sent from the signer's identity and only return once the ledger
has made them final.`,
		SilenceUsage:      true,
		PersistentPreRunE: e.open,
	}
	cmd.Version = version

	app.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newAppsCmd(e),
		newDelegateesCmd(e),
		newTokenCmd(e),
		newKeyCmd(e),
		newConsentCmd(e),
	)
	return cmd, e
}

func (e *env) open(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger = slogx.New(slogx.Config{
		Service: "delegatectl",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  "text",
		Output:  cmd.ErrOrStderr(),
	})

	if cmd.Annotations["offline"] == "true" {
		return nil
	}
	e.core, err = app.OpenCore(cmd.Context(), cfg, e.logger)
	return err
}

// offline marks commands that do not need the ledger or the signer.
func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["offline"] = "true"
	return cmd
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
