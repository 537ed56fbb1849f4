package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRefreshCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the catalog from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}

			if _, err := a.manager.Refresh(cmd.Context(), true); err != nil {
				return err
			}

			pkgs, err := a.manager.Catalog()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d packages in the catalog.\n", len(pkgs))
			return nil
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the store announcement and pending updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			ids, err := a.manager.Installed().IDs()
			if err != nil {
				return err
			}
			updates, err := a.manager.PendingUpdates()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if msg := a.session.Account.Message; msg != "" {
				fmt.Fprintf(w, "%s\n\n", msg)
			}
			fmt.Fprintf(w, "Home Assistant %s at %s\n", a.session.HostVersion, a.session.ConfigDir)
			fmt.Fprintf(w, "%d packages installed\n", len(ids))
			if len(updates) > 0 {
				fmt.Fprintf(w, "%d updates available, run \"hassbox-store update --all\"\n", len(updates))
			}
			return nil
		},
	}
}

func newAvailableCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List packages that can be installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			pkgs, err := a.manager.Available()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tNAME\tSTARS\tFORKS")
			for _, p := range pkgs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Type, p.DisplayName(), p.StarCount, p.ForksCount)
			}
			return tw.Flush()
		},
	}
}

func newViewCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show installed packages grouped by type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			summary, err := a.manager.Summary()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if summary.Empty() {
				fmt.Fprintln(w, "Nothing installed.")
				return nil
			}
			printList(w, "Integrations", summary.Integrations)
			printList(w, "Cards", summary.Cards)
			printList(w, "Themes", summary.Themes)
			return nil
		},
	}
}
