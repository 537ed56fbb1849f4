package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the version of this program. It is compared against the
// store's own release to offer a self-update.
var Version = "0.0.0-dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "hassbox-store",
		Short: "Install integrations, cards and themes from the HassBox store",
		Long: `hassbox-store installs Home Assistant packages from the HassBox store
into a configuration directory and keeps track of them for updates and
removal.

Supported package types:
  - Integrations (custom_components/<name>)
  - Dashboard cards (www/<repo>, registered as dashboard resources)
  - Themes (themes/<repo>)`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}

			return opts.load(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&opts.configDir, "config-dir", "c", "", "Home Assistant configuration directory (default $HASSBOX_CONFIG_DIR or .)")
	rootCmd.PersistentFlags().StringVar(&opts.hostVersion, "ha-version", "", "Home Assistant version (default read from .HA_VERSION)")

	// Add subcommands
	rootCmd.AddCommand(
		newLoginCmd(opts),
		newRefreshCmd(opts),
		newStatusCmd(opts),
		newAvailableCmd(opts),
		newInstallCmd(opts),
		newUpdateCmd(opts),
		newRemoveCmd(opts),
		newViewCmd(opts),
	)

	return rootCmd
}
