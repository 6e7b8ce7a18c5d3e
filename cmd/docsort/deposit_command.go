package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepositCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit",
		Short: "Mark every Ready row as Processed",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			count, err := client.deposit()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows deposited\n", count)
			return nil
		},
	}
}
