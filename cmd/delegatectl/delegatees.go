package main

import (
	"fmt"

	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/spf13/cobra"
)

func newDelegateesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delegatees",
		Short: "Add or remove application delegatees",
	}

	add := &cobra.Command{
		Use:   "add <app-id> <address>",
		Short: "Add a delegatee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			receipt, err := registry.NewDelegationManager(e.core.Registry).AddDelegatee(ctxOf(cmd), appID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to app %d (tx %s)\n", args[1], appID, receipt.TxHash)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <app-id> <address>",
		Short: "Remove a delegatee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseUint(args[0], "app-id")
			if err != nil {
				return err
			}
			receipt, err := registry.NewDelegationManager(e.core.Registry).RemoveDelegatee(ctxOf(cmd), appID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from app %d (tx %s)\n", args[1], appID, receipt.TxHash)
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
