package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var qrcode bool
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Bind a store token to this Home Assistant instance",
		Long: `Binds a HassBox store token to this instance. The token is either
given as an argument or obtained by scanning a QR code with --qrcode.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if qrcode == (len(args) == 1) {
				return models.NewError(models.ErrInvalidConfig, "", "give either a token or --qrcode")
			}

			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}

			if qrcode {
				ctx, cancel := context.WithTimeout(cmd.Context(), wait)
				defer cancel()

				err = a.session.LoginQR(ctx, a.client, 2*time.Second, func(url string) {
					fmt.Fprintf(cmd.OutOrStdout(), "Scan the QR code at %s to log in\n", url)
				})
			} else {
				err = a.session.Login(cmd.Context(), a.client, args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")

			if _, err := a.manager.Refresh(cmd.Context(), true); err != nil {
				logrus.Warnf("Could not refresh the catalog: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&qrcode, "qrcode", false, "Log in by scanning a QR code")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "How long to wait for the QR code to be scanned")

	return cmd
}
