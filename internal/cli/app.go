package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hass-box/hassbox-store/internal/installer"
	"github.com/hass-box/hassbox-store/internal/manager"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/remote"
	"github.com/hass-box/hassbox-store/internal/resources"
	"github.com/hass-box/hassbox-store/internal/session"
	"github.com/hass-box/hassbox-store/internal/verify"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment variable read into the config
const EnvPrefix = "HASSBOX"

// globalOptions holds the configuration shared by every command: the
// environment first, then the global flags on top
type globalOptions struct {
	cfg models.StoreConfig

	configDir   string
	hostVersion string
}

func (o *globalOptions) load(cmd *cobra.Command) error {
	if err := envconfig.Process(EnvPrefix, &o.cfg); err != nil {
		return &models.StoreError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("failed to read environment: %w", err),
		}
	}

	if cmd.Flags().Changed("config-dir") {
		o.cfg.ConfigDir = o.configDir
	}
	if cmd.Flags().Changed("ha-version") {
		o.cfg.HostVersion = o.hostVersion
	}

	logrus.Debugf("Configuration: %+v", o.cfg)
	return nil
}

// app wires one session to the store services
type app struct {
	session *session.Session
	client  *remote.Client
	manager *manager.Manager
}

func (o *globalOptions) open(ctx context.Context) (*app, error) {
	s, err := session.Load(ctx, session.Options{
		ConfigDir:   o.cfg.ConfigDir,
		HostVersion: o.cfg.HostVersion,
	})
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(remote.Options{
		APIBase:         o.cfg.APIBase,
		DownloadBase:    o.cfg.DownloadBase,
		AppID:           o.cfg.AppID,
		DownloadTimeout: o.cfg.DownloadTimeout,
	})

	var verifier verify.Verifier
	if o.cfg.TrustedKeyPath != "" {
		v, err := verify.NewGPGVerifier(o.cfg.TrustedKeyPath)
		if err != nil {
			return nil, &models.StoreError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("failed to load trusted key: %w", err),
			}
		}
		verifier = v
		logrus.Debug("Asset signatures will be verified")
	}

	inst := installer.NewInstaller(client, resources.NewRegistry(s.Store), verifier)

	return &app{
		session: s,
		client:  client,
		manager: manager.New(s, client, inst, Version),
	}, nil
}

func (a *app) requireLogin() error {
	if !a.session.Account.LoggedIn() {
		return models.NewError(models.ErrInvalidConfig, "", "not logged in, run \"hassbox-store login\" first")
	}
	return nil
}

// requireEnabled refreshes a stale catalog and then applies the store's
// enablement gate
func (a *app) requireEnabled(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	if _, err := a.manager.Refresh(ctx, false); err != nil {
		logrus.Warnf("Could not refresh the catalog: %v", err)
	}

	if err := a.session.CheckEnabled(ctx, a.client); err != nil {
		return err
	}
	return a.session.RequireEnabled()
}

func printList(w io.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, name := range names {
		fmt.Fprintf(w, "  * %s\n", name)
	}
}

// printResult reports a batch and returns an error when anything failed
func printResult(w io.Writer, verb string, result *manager.BatchResult) error {
	printList(w, verb+" successfully", result.Succeeded)

	if result.OK() {
		if len(result.Succeeded) > 0 {
			fmt.Fprintln(w, "Restart Home Assistant to apply the changes.")
		}
		return nil
	}

	fmt.Fprintf(w, "%s failed:\n", verb)
	for _, f := range result.Failed {
		fmt.Fprintf(w, "  * %s\n", f)
	}
	return fmt.Errorf("%d of %d packages failed", len(result.Failed), len(result.Failed)+len(result.Succeeded))
}
