package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dalemusser/stratagate/internal/app/policy/regpolicy"
	"github.com/dalemusser/stratagate/internal/app/store/kv"
	settingsstore "github.com/dalemusser/stratagate/internal/app/store/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change service settings",
	}
	cmd.AddCommand(newSettingsShowCmd(o))
	cmd.AddCommand(newForceVerifyCmd(o))
	cmd.AddCommand(newSiteNameCmd(o))
	return cmd
}

func newSettingsShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				s := settingsstore.New(store)
				cur, err := s.Get(ctx)
				if err != nil {
					return err
				}
				site, err := s.SiteInfo(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("forceVerify:       %t\n", cur.ForceVerify)
				cmd.Printf("registration open: %t\n", regpolicy.Enabled(cur))
				cmd.Printf("site name:         %s\n", site.Name)
				if site.LogoURL != "" {
					cmd.Printf("logo:              %s\n", site.LogoURL)
				}
				return nil
			})
		},
	}
}

func newForceVerifyCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force-verify <true|false>",
		Short: "Require email verification before login",
		Long: `Set forceVerify. Running servers pick the change up on their next
registration policy poll: registration routes are served only while
forceVerify is true.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("force-verify: %q is not a boolean", args[0])
			}
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				cur, err := settingsstore.New(store).SetForceVerify(ctx, on)
				if err != nil {
					return err
				}
				cmd.Printf("forceVerify set to %t\n", cur.ForceVerify)
				return nil
			})
		},
	}
}

func newSiteNameCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "site-name <name>",
		Short: "Set the display name used on pages and in email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, o, func(ctx context.Context, store kv.Store) error {
				if err := settingsstore.New(store).SetSiteName(ctx, args[0]); err != nil {
					return err
				}
				cmd.Printf("site name set to %q\n", args[0])
				return nil
			})
		},
	}
}
