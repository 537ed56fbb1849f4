package cli

import (
	"fmt"

	"github.com/hass-box/hassbox-store/internal/manager"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newInstallCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <id>...",
		Short: "Install packages from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			pkgs, unknown, err := a.manager.Lookup(args)
			if err != nil {
				return err
			}

			result := a.manager.Install(cmd.Context(), pkgs)
			for _, id := range unknown {
				result.Failed = append(result.Failed, manager.Failure{
					Name: id,
					Err:  models.NewError(models.ErrInvalidConfig, id, "not in the catalog"),
				})
			}

			return printResult(cmd.OutOrStdout(), "Installed", result)
		},
	}
}

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "update [id...]",
		Short: "Update installed packages",
		Long: `Lists the packages with a newer compatible release, or installs
the updates of the given packages. --all updates everything listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			pending, err := a.manager.PendingUpdates()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 0 && !all {
				if len(pending) == 0 {
					fmt.Fprintln(w, "Everything is up to date.")
					return nil
				}
				for _, p := range pending {
					fmt.Fprintf(w, "%s\t%s\n", p.ID, p.DisplayName())
				}
				return nil
			}

			selected := pending
			if !all {
				selected = selectPending(pending, args)
			}
			if len(selected) == 0 {
				fmt.Fprintln(w, "Nothing to update.")
				return nil
			}

			return printResult(w, "Updated", a.manager.Install(cmd.Context(), selected))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Update every package with a pending update")

	return cmd
}

// selectPending keeps the pending updates named by ids
func selectPending(pending []models.PackageDescriptor, ids []string) []models.PackageDescriptor {
	byID := make(map[string]models.PackageDescriptor, len(pending))
	for _, p := range pending {
		byID[p.ID] = p
	}

	var selected []models.PackageDescriptor
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			logrus.Warnf("No update available for %s", id)
			continue
		}
		selected = append(selected, p)
	}
	return selected
}

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"delete"},
		Short:   "Remove installed packages",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.requireEnabled(cmd.Context()); err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), "Removed", a.manager.Delete(cmd.Context(), args))
		},
	}
}
