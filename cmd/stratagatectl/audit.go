package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/audit"
	"github.com/dalemusser/stratagate/internal/app/store/kv"
	"github.com/spf13/cobra"
)

func newAuditCmd(o *options) *cobra.Command {
	var limit int
	var failedSince time.Duration

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				events := audit.New(store)
				var (
					list []audit.Event
					err  error
				)
				if failedSince > 0 {
					list, err = events.GetFailedLogins(ctx, time.Now().Add(-failedSince), limit)
				} else {
					list, err = events.GetRecent(ctx, limit)
				}
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tEVENT\tUSER\tIP\tSUCCESS")
				for _, e := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", e.Timestamp.Format(time.RFC3339), e.EventType, e.Username, e.IP, e.Success)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum events to show")
	cmd.Flags().DurationVar(&failedSince, "failed-since", 0, "only failed logins within this window (e.g., 1h)")
	return cmd
}
