package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/spf13/cobra"
)

func newAppsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Register and inspect applications",
	}
	cmd.AddCommand(
		newAppsListCmd(e),
		newAppsGetCmd(e),
		newAppsRegisterCmd(e),
		newAppsNextVersionCmd(e),
		newAppsEnableCmd(e),
		newAppsToggleCmd(e),
		newAppsAgentsCmd(e),
		newAppsPermitCmd(e),
	)
	return cmd
}

func newAppsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list [manager]",
		Short: "List applications by manager (default: the signer identity)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := e.core.Identity
			if len(args) == 1 {
				manager = args[0]
			}
			apps, err := e.core.Apps.BuildApplicationsForManager(ctxOf(cmd), manager)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), apps)
		},
	}
}

func newAppsGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <app-id>",
		Short: "Show one application with all versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			app, err := e.core.Apps.BuildApplication(ctxOf(cmd), appID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), app)
		},
	}
}

func newAppsRegisterCmd(e *env) *cobra.Command {
	var (
		p            registry.RegisterAppParams
		contactEmail string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an application managed by the signer identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := ctxOf(cmd)
			appID, receipt, err := e.core.Registry.RegisterApp(ctx, p)
			if err != nil {
				return err
			}
			if contactEmail != "" {
				if err := e.core.DB.Metadata().PutMetadata(ctx, appID, domain.Metadata{ContactEmail: contactEmail}); err != nil {
					e.logger.Warn("application registered but metadata was not stored", "app_id", appID, "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered app %d (tx %s, block %d)\n", appID, receipt.TxHash, receipt.Block)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "application name (2-50 characters)")
	cmd.Flags().StringVar(&p.Description, "description", "", "application description (10-500 characters)")
	cmd.Flags().StringSliceVar(&p.RedirectURIs, "redirect-uri", nil, "authorized redirect URI (repeatable)")
	cmd.Flags().StringSliceVar(&p.Delegatees, "delegatee", nil, "delegatee address (repeatable)")
	cmd.Flags().StringVar(&contactEmail, "contact-email", "", "contact email kept off-ledger")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newAppsNextVersionCmd(e *env) *cobra.Command {
	var (
		version   uint64
		toolsFile string
	)
	cmd := &cobra.Command{
		Use:   "next-version <app-id>",
		Short: "Register the next version of an application",
		Long: `Register the next version of an application. --version must be exactly one
past the current version. --tools points at a JSON array of tools:

  [{"ipfs_cid": "Qm...", "policies": [{"ipfs_cid": "Qm...", "parameter_names": ["max"]}]}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			var tools []domain.Tool
			if toolsFile != "" {
				raw, err := os.ReadFile(toolsFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &tools); err != nil {
					return fmt.Errorf("parse %s: %w", toolsFile, err)
				}
			}

			cids, policies, params := domain.ToolArrays(tools)
			v, receipt, err := registry.NewDelegationManager(e.core.Registry).
				RegisterNextVersion(ctxOf(cmd), appID, version, cids, policies, params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered version %d of app %d (tx %s)\n", v, appID, receipt.TxHash)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&version, "version", 0, "version number to register")
	cmd.Flags().StringVar(&toolsFile, "tools", "", "JSON file with the version's tools")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func newAppsEnableCmd(e *env) *cobra.Command {
	var disable bool
	cmd := &cobra.Command{
		Use:   "enable <app-id> <version>",
		Short: "Enable (or with --disable, disable) an application version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			version, err := parseUint(args[1], "version")
			if err != nil {
				return err
			}
			receipt, err := registry.NewDelegationManager(e.core.Registry).ToggleVersion(ctxOf(cmd), appID, version, !disable)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "app %d version %d enabled=%t (tx %s)\n", appID, version, !disable, receipt.TxHash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "disable instead of enable")
	return cmd
}

func newAppsToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <app-id>",
		Short: "Flip the enablement of the current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			enabled, receipt, err := registry.NewDelegationManager(e.core.Registry).ToggleCurrentVersion(ctxOf(cmd), appID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "app %d current version enabled=%t (tx %s)\n", appID, enabled, receipt.TxHash)
			return nil
		},
	}
}

func newAppsAgentsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "agents <app-id> <version>",
		Short: "List agent keys that permitted a version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			version, err := parseUint(args[1], "version")
			if err != nil {
				return err
			}
			pkps, err := e.core.Registry.FetchDelegatedAgentPKPs(ctxOf(cmd), appID, version)
			if err != nil {
				return err
			}
			for _, p := range pkps {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			return nil
		},
	}
}

func newAppsPermitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "permit <app-id> <version> <pkp-token-id>",
		Short: "Permit a version for an agent key, as the key's owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			version, err := parseUint(args[1], "version")
			if err != nil {
				return err
			}
			tokenID, ok := new(big.Int).SetString(args[2], 0)
			if !ok {
				return domain.Invalid("pkp-token-id", "%q is not an integer", args[2])
			}
			receipt, err := e.core.Registry.PermitAppVersion(ctxOf(cmd), appID, version, tokenID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "permitted app %d version %d for %s (tx %s)\n", appID, version, tokenID, receipt.TxHash)
			return nil
		},
	}
}

func parseUint(s, name string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, domain.Invalid(name, "must be a positive integer, got %q", s)
	}
	return n, nil
}
