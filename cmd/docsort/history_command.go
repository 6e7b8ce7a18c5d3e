package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var eventFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the ingest journal, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			entries, err := client.history(eventFlag, limitFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No journal entries.")
				return nil
			}

			headers := []string{"When", "Event", "Document", "Type", "File"}
			tableRows := make([][]string, 0, len(entries))
			for _, e := range entries {
				path := e.RenamedPath
				if path == "" {
					path = e.SourcePath
				}
				tableRows = append(tableRows, []string{
					e.OccurredAt.Local().Format(time.DateTime),
					e.Event,
					e.DocNumber,
					e.DocType,
					path,
				})
			}
			fmt.Fprintln(out, renderTable(headers, tableRows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&eventFlag, "event", "", "Filter by event (ingested, duplicate, deposited)")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum entries to show")
	return cmd
}
