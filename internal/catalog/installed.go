// Package catalog keeps the durable record of installed packages.
package catalog

import (
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/hass-box/hassbox-store/internal/version"
	"github.com/sirupsen/logrus"
)

// Documents is the persisted-storage dependency of the catalog
type Documents interface {
	Load(key string, v interface{}) (bool, error)
	Save(key string, v interface{}) error
}

// Installed is the installed-package catalog. Every mutation reloads the
// document, changes it, and rewrites it whole.
type Installed struct {
	docs Documents
}

// NewInstalled creates an installed catalog over docs
func NewInstalled(docs Documents) *Installed {
	return &Installed{docs: docs}
}

// All returns every installed record keyed by package id
func (c *Installed) All() (map[string]*models.InstalledRecord, error) {
	records := make(map[string]*models.InstalledRecord)
	if _, err := c.docs.Load(storage.KeyInstalled, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// IDs returns the installed package ids in sorted order
func (c *Installed) IDs() ([]string, error) {
	records, err := c.All()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Get returns the record for id
func (c *Installed) Get(id string) (*models.InstalledRecord, bool, error) {
	records, err := c.All()
	if err != nil {
		return nil, false, err
	}
	rec, ok := records[id]
	return rec, ok, nil
}

// Record inserts or overwrites the entry for rec.ID. The store's own
// component is never recorded.
func (c *Installed) Record(rec *models.InstalledRecord) error {
	if rec.ID == models.StoreIntegrationID {
		logrus.Debugf("Not recording %s in the installed catalog", rec.ID)
		return nil
	}

	records, err := c.All()
	if err != nil {
		return err
	}

	records[rec.ID] = rec
	if err := c.docs.Save(storage.KeyInstalled, records); err != nil {
		return err
	}

	logrus.Infof("Recorded %s at version %s", rec.ID, rec.VersionName)
	return nil
}

// Remove deletes the entry for id. A missing entry is not an error.
func (c *Installed) Remove(id string) error {
	records, err := c.All()
	if err != nil {
		return err
	}

	if _, ok := records[id]; !ok {
		logrus.Debugf("%s is not in the installed catalog", id)
		return nil
	}

	delete(records, id)
	return c.docs.Save(storage.KeyInstalled, records)
}

// HasUpdate reports whether available offers a compatible release other
// than the installed one.
func HasUpdate(installed *models.InstalledRecord, available *models.PackageDescriptor, host *goversion.Version) bool {
	return version.HasUpdate(installed.VersionName, available.Versions, host)
}
