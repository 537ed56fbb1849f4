// Package resources manages the dashboard's list of JavaScript module
// resources for installed cards.
package resources

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/hass-box/hassbox-store/internal/utils"
	"github.com/sirupsen/logrus"
)

// ModuleType is the resource type used for card modules
const ModuleType = "module"

// Item is one dashboard resource
type Item struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Document is the persisted resource list
type Document struct {
	Items []Item `json:"items"`
}

// Documents is the persisted-storage dependency of the registry
type Documents interface {
	Load(key string, v interface{}) (bool, error)
	Save(key string, v interface{}) error
}

// Registry adds, refreshes and removes card resources
type Registry struct {
	docs Documents
	now  func() time.Time
}

// NewRegistry creates a registry over docs
func NewRegistry(docs Documents) *Registry {
	return &Registry{docs: docs, now: time.Now}
}

// WithClock replaces the wall clock used for cache-busting tags
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// LocalURL returns the dashboard URL of a file under www/<dir>
func LocalURL(dir, file string) string {
	return "/local/" + dir + "/" + file
}

// Items returns the current resource list
func (r *Registry) Items() ([]Item, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Upsert points the resource starting with prefix at a freshly tagged URL.
// An existing entry keeps its id; otherwise a new entry is appended whose
// id is the MD5 of the tagged URL.
func (r *Registry) Upsert(prefix string) (string, error) {
	doc, err := r.load()
	if err != nil {
		return "", err
	}

	url := r.tagged(prefix)
	id := ""

	for i := range doc.Items {
		if strings.HasPrefix(doc.Items[i].URL, prefix) {
			doc.Items[i].URL = url
			id = doc.Items[i].ID
			logrus.Debugf("Refreshed resource %s -> %s", id, url)
			break
		}
	}

	if id == "" {
		id = utils.CalculateChecksum([]byte(url), utils.MD5)
		doc.Items = append(doc.Items, Item{ID: id, Type: ModuleType, URL: url})
		logrus.Infof("Added resource %s", url)
	}

	if err := r.docs.Save(storage.KeyResources, doc); err != nil {
		return "", fmt.Errorf("failed to save resources: %w", err)
	}
	return id, nil
}

// Remove drops the first resource starting with prefix. A missing entry
// is not an error.
func (r *Registry) Remove(prefix string) error {
	doc, err := r.load()
	if err != nil {
		return err
	}

	id := ""
	for _, item := range doc.Items {
		if strings.HasPrefix(item.URL, prefix) {
			id = item.ID
			break
		}
	}
	if id == "" {
		logrus.Debugf("No resource matches %s", prefix)
		return nil
	}

	kept := doc.Items[:0]
	for _, item := range doc.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	doc.Items = kept

	if err := r.docs.Save(storage.KeyResources, doc); err != nil {
		return fmt.Errorf("failed to save resources: %w", err)
	}

	logrus.Infof("Removed resource %s", prefix)
	return nil
}

func (r *Registry) tagged(prefix string) string {
	return prefix + "?tag=" + strconv.FormatInt(r.now().Unix(), 10)
}

func (r *Registry) load() (*Document, error) {
	doc := &Document{}
	if _, err := r.docs.Load(storage.KeyResources, doc); err != nil {
		return nil, err
	}
	if doc.Items == nil {
		doc.Items = []Item{}
	}
	return doc, nil
}
