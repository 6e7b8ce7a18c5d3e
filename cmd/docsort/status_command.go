package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and ledger counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			runningKind := statusError
			runningMsg := "stopped"
			if status.Running {
				runningKind = statusOK
				runningMsg = fmt.Sprintf("pid %d", status.PID)
			}
			fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, status.JournalDBPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))

			if len(status.Preflight) > 0 {
				for _, line := range renderSectionHeader("Startup checks", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range status.Preflight {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
			}

			for _, line := range renderSectionHeader("Documents", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Ready", statusOK, fmt.Sprintf("%d", status.Ready), colorize))
			reviewKind := statusOK
			if status.Review > 0 {
				reviewKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Review", reviewKind, fmt.Sprintf("%d", status.Review), colorize))
			fmt.Fprintln(out, renderStatusLine("Processed", statusInfo, fmt.Sprintf("%d", status.Processed), colorize))
			fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", status.Pending), colorize))

			if status.Batch != nil {
				fmt.Fprintln(out, renderStatusLine("Batch", statusInfo,
					fmt.Sprintf("#%d %d/%d", status.Batch.ID, status.Batch.Done, status.Batch.Total), colorize))
			}
			return nil
		},
	}
}
