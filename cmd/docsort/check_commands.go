package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offFlag bool

	cmd := &cobra.Command{
		Use:   "check <row-id>",
		Short: "Set the check mark on an eligible row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.check(args[0], !offFlag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Row %s checked: %s\n", args[0], yesNo(!offFlag))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offFlag, "off", false, "Clear the check mark instead of setting it")
	return cmd
}

func newCheckAllCommand(ctx *commandContext) *cobra.Command {
	var offFlag bool

	cmd := &cobra.Command{
		Use:   "check-all",
		Short: "Set the check mark on every eligible row",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			changed, err := client.checkAll(!offFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows changed\n", changed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offFlag, "off", false, "Clear check marks instead of setting them")
	return cmd
}
