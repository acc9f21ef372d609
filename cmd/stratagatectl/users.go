package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	userstore "github.com/dalemusser/stratagate/internal/app/store/users"
	"github.com/spf13/cobra"
)

func newUsersCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect or remove accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				users, err := userstore.New(store).List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "USERNAME\tEMAIL\tVERIFIED\tADMIN\tCREATED")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n", u.Username, u.Email, u.Verified, u.IsAdmin, u.CreatedAt.Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account; its sessions end on their next request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				users := userstore.New(store)
				u, err := users.ByUsername(ctx, args[0])
				if errors.Is(err, userstore.ErrNotFound) {
					return fmt.Errorf("no user %q", args[0])
				}
				if err != nil {
					return err
				}
				if err := users.Delete(ctx, u.ID); err != nil {
					return err
				}
				cmd.Printf("deleted %s\n", u.Username)
				return nil
			})
		},
	})
	return cmd
}
