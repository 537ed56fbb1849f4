package catalog

import (
	"testing"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/hass-box/hassbox-store/internal/version"
)

func newCatalog(t *testing.T) (*Installed, *storage.Store) {
	t.Helper()
	docs := storage.New(t.TempDir())
	return NewInstalled(docs), docs
}

func TestRecordAndGet(t *testing.T) {
	c, _ := newCatalog(t)

	pkg := &models.PackageDescriptor{
		ID:   "a/b",
		Type: models.TypeCard,
		Name: "B card",
		Versions: []models.VersionInfo{
			{Name: "1.0", AssetName: "b.tar.gz"},
		},
	}
	rec := models.NewInstalledRecord(pkg, "1.0")
	rec.CardDirectory = "/config/www/b"
	rec.CardName = "b.js"

	if err := c.Record(rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, ok, err := c.Get("a/b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a/b to be recorded")
	}
	if got.VersionName != "1.0" || got.CardName != "b.js" || got.CardDirectory != "/config/www/b" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestRecordOverwrites(t *testing.T) {
	c, _ := newCatalog(t)

	pkg := &models.PackageDescriptor{ID: "a/b", Type: models.TypeTheme, Name: "B"}
	c.Record(models.NewInstalledRecord(pkg, "1.0"))
	c.Record(models.NewInstalledRecord(pkg, "2.0"))

	records, err := c.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records["a/b"].VersionName != "2.0" {
		t.Errorf("expected version 2.0, got %s", records["a/b"].VersionName)
	}
}

func TestRecordSkipsStoreComponent(t *testing.T) {
	c, _ := newCatalog(t)

	pkg := &models.PackageDescriptor{ID: models.StoreIntegrationID, Type: models.TypeIntegration, Name: "Store"}
	if err := c.Record(models.NewInstalledRecord(pkg, "1.0")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	ids, _ := c.IDs()
	if len(ids) != 0 {
		t.Errorf("store component should not be recorded, got %v", ids)
	}
}

func TestRemove(t *testing.T) {
	c, _ := newCatalog(t)

	for _, id := range []string{"a/b", "c/d"} {
		c.Record(models.NewInstalledRecord(&models.PackageDescriptor{ID: id, Type: models.TypeIntegration}, "1"))
	}

	if err := c.Remove("a/b"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Second removal is a no-op
	if err := c.Remove("a/b"); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}

	ids, _ := c.IDs()
	if len(ids) != 1 || ids[0] != "c/d" {
		t.Errorf("expected [c/d], got %v", ids)
	}
}

func TestHasUpdate(t *testing.T) {
	host, _ := version.ParseHost("2024.6.0")

	installed := &models.InstalledRecord{ID: "a/b", VersionName: "1.0"}
	same := &models.PackageDescriptor{ID: "a/b", Versions: []models.VersionInfo{{Name: "1.0", AssetName: "b.zip"}}}
	newer := &models.PackageDescriptor{ID: "a/b", Versions: []models.VersionInfo{{Name: "1.1", AssetName: "b.zip"}}}
	blocked := &models.PackageDescriptor{ID: "a/b", Versions: []models.VersionInfo{{Name: "1.1", AssetName: "b.zip", HostVersion: "2024.1.0"}}}

	if HasUpdate(installed, same, host) {
		t.Error("same version reported as update")
	}
	if !HasUpdate(installed, newer, host) {
		t.Error("newer version not reported as update")
	}
	if HasUpdate(installed, blocked, host) {
		t.Error("incompatible version reported as update")
	}
}
