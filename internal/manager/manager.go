// Package manager runs the user-facing store operations: refreshing the
// catalog, listing what can be installed or updated, and installing or
// deleting batches of packages.
package manager

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hass-box/hassbox-store/internal/catalog"
	"github.com/hass-box/hassbox-store/internal/installer"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/remote"
	"github.com/hass-box/hassbox-store/internal/session"
	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/hass-box/hassbox-store/internal/version"
	"github.com/sirupsen/logrus"
)

// RefreshInterval is how long a fetched catalog stays fresh
const RefreshInterval = 24 * time.Hour

// Remote is the part of the store API the manager needs
type Remote interface {
	FetchData(ctx context.Context, creds remote.Credentials) (*remote.StoreData, error)
	FetchCatalog(ctx context.Context, source string, creds remote.Credentials) ([]models.PackageDescriptor, error)
}

// Installer places and removes package files
type Installer interface {
	Install(ctx context.Context, host installer.Host, pkg *models.PackageDescriptor) (*models.InstalledRecord, error)
	Remove(ctx context.Context, rec *models.InstalledRecord) error
}

// Failure is a package that could not be processed
type Failure struct {
	Name string
	Err  error
}

// BatchResult lists the outcome of a batch by display name
type BatchResult struct {
	Succeeded []string
	Failed    []Failure
}

// OK reports whether every package succeeded
func (r *BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// Summary is the installed catalog grouped by package type
type Summary struct {
	Integrations []string
	Cards        []string
	Themes       []string
}

// Empty reports whether nothing is installed
func (s *Summary) Empty() bool {
	return len(s.Integrations)+len(s.Cards)+len(s.Themes) == 0
}

// Manager runs store operations against one session
type Manager struct {
	session     *session.Session
	remote      Remote
	installer   Installer
	installed   *catalog.Installed
	selfVersion string
	now         func() time.Time
}

// New creates a manager. selfVersion is the version of this program,
// compared against the store's own descriptor to offer a self-update.
func New(s *session.Session, r Remote, inst Installer, selfVersion string) *Manager {
	return &Manager{
		session:     s,
		remote:      r,
		installer:   inst,
		installed:   catalog.NewInstalled(s.Store),
		selfVersion: selfVersion,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for the refresh interval
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Installed returns the installed catalog
func (m *Manager) Installed() *catalog.Installed {
	return m.installed
}

// Refresh fetches the announcement, the store's own descriptor and the
// catalog when forced or when the last refresh is older than
// RefreshInterval. It reports whether a fetch happened.
func (m *Manager) Refresh(ctx context.Context, force bool) (bool, error) {
	account := m.session.Account
	now := m.now()

	last := time.Unix(int64(account.LastUpdate), 0)
	if !force && account.LastUpdate > 0 && now.Sub(last) < RefreshInterval {
		logrus.Debugf("Catalog refreshed at %s, skipping", last.Format(time.RFC3339))
		return false, nil
	}

	creds := m.session.Credentials()
	data, err := m.remote.FetchData(ctx, creds)
	if err != nil {
		return false, err
	}

	if data.Integration != nil {
		if err := data.Integration.Normalize(); err != nil {
			logrus.Warnf("Ignoring store descriptor: %v", err)
			data.Integration = nil
		}
	}

	account.Message = data.Message
	account.Integration = data.Integration
	account.LastUpdate = float64(now.Unix())
	if err := m.session.SaveAccount(); err != nil {
		return false, err
	}

	pkgs, err := m.remote.FetchCatalog(ctx, data.DataSourceURL, creds)
	if err != nil {
		return true, err
	}
	if err := m.session.Store.Save(storage.KeyCatalog, pkgs); err != nil {
		return true, err
	}

	logrus.Infof("Catalog refreshed: %d packages", len(pkgs))
	return true, nil
}

// Catalog returns the cached catalog
func (m *Manager) Catalog() ([]models.PackageDescriptor, error) {
	var pkgs []models.PackageDescriptor
	if _, err := m.session.Store.Load(storage.KeyCatalog, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// Available returns the catalog entries that are not installed, most
// starred first and then most forked
func (m *Manager) Available() ([]models.PackageDescriptor, error) {
	pkgs, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	records, err := m.installed.All()
	if err != nil {
		return nil, err
	}

	available := make([]models.PackageDescriptor, 0, len(pkgs))
	for _, p := range pkgs {
		if _, ok := records[p.ID]; !ok {
			available = append(available, p)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		a, b := available[i], available[j]
		if a.StarCount != b.StarCount {
			return a.StarCount > b.StarCount
		}
		return a.ForksCount > b.ForksCount
	})

	return available, nil
}

// PendingUpdates returns the packages with an update: the store itself
// first when its compatible release differs from this program's version,
// then every installed package whose catalog entry offers another
// compatible release.
func (m *Manager) PendingUpdates() ([]models.PackageDescriptor, error) {
	var updates []models.PackageDescriptor

	if self := m.session.Account.Integration; self != nil {
		if version.HasUpdate(m.selfVersion, self.Versions, m.session.HostVersion) {
			updates = append(updates, *self)
		}
	}

	pkgs, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	records, err := m.installed.All()
	if err != nil {
		return nil, err
	}

	for _, p := range pkgs {
		rec, ok := records[p.ID]
		if !ok {
			continue
		}
		if catalog.HasUpdate(rec, &p, m.session.HostVersion) {
			updates = append(updates, p)
		}
	}

	return updates, nil
}

// Lookup resolves ids against the catalog and the store's own
// descriptor. Unknown ids are returned separately.
func (m *Manager) Lookup(ids []string) ([]models.PackageDescriptor, []string, error) {
	pkgs, err := m.Catalog()
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]models.PackageDescriptor, len(pkgs)+1)
	for _, p := range pkgs {
		byID[p.ID] = p
	}
	if self := m.session.Account.Integration; self != nil {
		byID[self.ID] = *self
	}

	var found []models.PackageDescriptor
	var unknown []string
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			found = append(found, p)
		} else {
			unknown = append(unknown, id)
		}
	}
	return found, unknown, nil
}

// Install installs pkgs one after the other and records each success.
// A failure is collected and the batch goes on.
func (m *Manager) Install(ctx context.Context, pkgs []models.PackageDescriptor) *BatchResult {
	result := &BatchResult{}
	host := m.session.Host()

	for i := range pkgs {
		p := &pkgs[i]

		rec, err := m.installer.Install(ctx, host, p)
		if err == nil {
			err = m.installed.Record(rec)
		}
		if err != nil {
			logrus.Errorf("Failed to install %s: %v", p.ID, err)
			result.Failed = append(result.Failed, Failure{Name: p.Name, Err: err})
			continue
		}

		result.Succeeded = append(result.Succeeded, p.DisplayName())
	}

	return result
}

// Delete removes the installed packages named by ids. Files that are
// already gone count as removed, and ids that are not installed are
// skipped.
func (m *Manager) Delete(ctx context.Context, ids []string) *BatchResult {
	result := &BatchResult{}

	for _, id := range ids {
		rec, ok, err := m.installed.Get(id)
		if err != nil {
			result.Failed = append(result.Failed, Failure{Name: id, Err: err})
			continue
		}
		if !ok {
			logrus.Warnf("%s is not installed", id)
			continue
		}

		if err := m.installer.Remove(ctx, rec); err != nil {
			if !models.IsErrorType(err, models.ErrPathNotFound) {
				logrus.Errorf("Failed to delete %s: %v", id, err)
				result.Failed = append(result.Failed, Failure{Name: rec.Name, Err: err})
				continue
			}
			logrus.Warnf("%v, treating as removed", err)
		}

		if err := m.installed.Remove(id); err != nil {
			result.Failed = append(result.Failed, Failure{Name: rec.Name, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, rec.DisplayName())
	}

	return result
}

// Summary groups the installed packages by type, in id order
func (m *Manager) Summary() (*Summary, error) {
	records, err := m.installed.All()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := &Summary{}
	for _, id := range ids {
		rec := records[id]
		switch rec.Type {
		case models.TypeIntegration:
			summary.Integrations = append(summary.Integrations, rec.DisplayName())
		case models.TypeCard:
			summary.Cards = append(summary.Cards, rec.DisplayName())
		case models.TypeTheme:
			summary.Themes = append(summary.Themes, rec.DisplayName())
		default:
			logrus.Warnf("Installed record %s has unknown type %q", id, rec.Type)
		}
	}

	return summary, nil
}

// String renders the failure for display
func (f Failure) String() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}
