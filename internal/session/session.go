// Package session holds the per-invocation state of the store client:
// where Home Assistant lives, which version it runs, who this instance
// is, and whether the account may use the store.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"
	"github.com/hass-box/hassbox-store/internal/installer"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/remote"
	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/hass-box/hassbox-store/internal/version"
	"github.com/sirupsen/logrus"
)

// Remote is the part of the store API a session talks to
type Remote interface {
	BindToken(ctx context.Context, uuid, token string) (string, error)
	CheckValid(ctx context.Context, creds remote.Credentials) (bool, string, error)
	GetQRCode(ctx context.Context, token string) (*remote.QRCode, error)
	CheckState(ctx context.Context, token string) (string, string, error)
}

// Options selects the Home Assistant instance
type Options struct {
	ConfigDir string

	// HostVersion overrides the version read from .HA_VERSION
	HostVersion string
}

type coreUUID struct {
	UUID string `json:"uuid"`
}

// Session is the explicit state of one CLI invocation
type Session struct {
	ConfigDir   string
	HostVersion *goversion.Version
	UUID        string
	Account     *models.AccountConfig
	Store       *storage.Store

	checked        bool
	enabled        bool
	disabledReason string
}

// Load reads the host version, the instance uuid and the account
// document. A missing uuid is generated and persisted.
func Load(ctx context.Context, opts Options) (*Session, error) {
	if opts.ConfigDir == "" {
		return nil, models.NewError(models.ErrInvalidConfig, "", "config directory is required")
	}

	var host *goversion.Version
	var err error
	if opts.HostVersion != "" {
		host, err = version.ParseHost(opts.HostVersion)
	} else {
		host, err = version.ReadHost(opts.ConfigDir)
	}
	if err != nil {
		return nil, &models.StoreError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("cannot determine Home Assistant version: %w", err),
		}
	}

	s := &Session{
		ConfigDir:   opts.ConfigDir,
		HostVersion: host,
		Store:       storage.New(opts.ConfigDir),
		Account:     &models.AccountConfig{},
	}

	if s.UUID, err = s.loadUUID(); err != nil {
		return nil, err
	}

	if _, err := s.Store.Load(storage.KeyAccount, s.Account); err != nil {
		return nil, err
	}

	logrus.Debugf("Session for %s (Home Assistant %s, instance %s)", s.ConfigDir, s.HostVersion, s.UUID)
	return s, nil
}

func (s *Session) loadUUID() (string, error) {
	var doc coreUUID
	found, err := s.Store.Load(storage.KeyCoreUUID, &doc)
	if err != nil {
		return "", err
	}
	if found && doc.UUID != "" {
		return doc.UUID, nil
	}

	doc.UUID = strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.Store.Save(storage.KeyCoreUUID, &doc); err != nil {
		return "", err
	}
	logrus.Infof("Generated instance id %s", doc.UUID)
	return doc.UUID, nil
}

// Credentials identify this instance to the store
func (s *Session) Credentials() remote.Credentials {
	return remote.Credentials{
		UUID:        s.UUID,
		Token:       s.Account.Token,
		Certificate: s.Account.Certificate,
	}
}

// Host describes the instance to the installer
func (s *Session) Host() installer.Host {
	return installer.Host{ConfigDir: s.ConfigDir, Version: s.HostVersion}
}

// SaveAccount rewrites the account document
func (s *Session) SaveAccount() error {
	return s.Store.Save(storage.KeyAccount, s.Account)
}

// Login binds token to this instance and stores the issued certificate
func (s *Session) Login(ctx context.Context, r Remote, token string) error {
	if token == "" {
		return models.NewError(models.ErrInvalidConfig, "", "token is required")
	}

	certificate, err := r.BindToken(ctx, s.UUID, token)
	if err != nil {
		return err
	}

	s.Account.Token = token
	s.Account.Certificate = certificate
	if err := s.SaveAccount(); err != nil {
		return err
	}

	logrus.Info("Token bound to this instance")
	return nil
}

// LoginQR runs the QR-code login. show receives the URL to present to
// the user; the service is then polled every interval until the code is
// scanned or ctx ends. The token obtained is bound like Login does.
func (s *Session) LoginQR(ctx context.Context, r Remote, interval time.Duration, show func(url string)) error {
	code, err := r.GetQRCode(ctx, s.Account.Token)
	if err != nil {
		return err
	}
	if code.URL == "" {
		return models.NewError(models.ErrRemote, "", "%s", code.ErrMsg)
	}
	show(code.URL)

	pending := code.Token
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		token, msg, err := r.CheckState(ctx, pending)
		if err != nil {
			return err
		}
		if token != "" {
			return s.Login(ctx, r, token)
		}
		logrus.Debugf("Waiting for QR code scan: %s", msg)
	}
}

// CheckEnabled asks the store whether the account may use it. The answer
// is kept for the rest of the session.
func (s *Session) CheckEnabled(ctx context.Context, r Remote) error {
	enabled, reason, err := r.CheckValid(ctx, s.Credentials())
	if err != nil {
		return err
	}

	s.checked = true
	s.enabled = enabled
	s.disabledReason = reason
	return nil
}

// Enabled reports the last enablement answer and the reason for a refusal
func (s *Session) Enabled() (bool, string) {
	return s.enabled, s.disabledReason
}

// RequireEnabled returns a Disabled error carrying the store's reason
// verbatim unless the account has been checked and found enabled
func (s *Session) RequireEnabled() error {
	if !s.checked {
		return models.NewError(models.ErrDisabled, "", "store access has not been checked")
	}
	if !s.enabled {
		return models.NewError(models.ErrDisabled, "", "%s", s.disabledReason)
	}
	return nil
}
