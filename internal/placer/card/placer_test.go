package card

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/scanner"
)

func target(id string, v models.VersionInfo) *placer.Target {
	return &placer.Target{
		ConfigDir: "/config",
		Package:   &models.PackageDescriptor{ID: id, Type: models.TypeCard},
		Version:   &v,
		RootName:  "b",
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("lovelace-mini-graph-card", "")
	want := []string{
		"mini-graph-card.js",
		"lovelace-mini-graph-card.js",
		"lovelace-mini-graph-card.umd.js",
		"lovelace-mini-graph-card-bundle.js",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}

	if got := Candidates("button-card", "custom.js"); !reflect.DeepEqual(got, []string{"custom.js"}) {
		t.Errorf("override not honoured: %v", got)
	}
}

func TestFindCardFirstInWalkOrder(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{
		{Path: "src/b.js"},
		{Path: "dist/b.js"},
		{Path: "b-bundle.js"},
	})

	entry, ok := FindCard(tree, Candidates("b", ""))
	if !ok {
		t.Fatal("expected a card module")
	}
	if entry.Path != "b-bundle.js" {
		t.Errorf("expected root file first, got %s", entry.Path)
	}
}

func TestPlanFromArchive(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{
		{Path: "dist/b.js"},
		{Path: "dist/b.js.map"},
	})

	plan, err := NewPlacer().Plan(target("a/b", models.VersionInfo{Name: "1.0", AssetName: "b.tar.gz"}), tree)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	cardDir := filepath.Join("/config", "www", "b")
	if len(plan.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(plan.Moves))
	}
	m := plan.Moves[0]
	if m.Source != "dist/b.js" || m.Dest != filepath.Join(cardDir, "b.js") || !m.Compress || m.FromAsset {
		t.Errorf("unexpected move: %+v", m)
	}
	if plan.Paths.CardDirectory != cardDir || plan.Paths.CardName != "b.js" {
		t.Errorf("unexpected paths: %+v", plan.Paths)
	}
	if plan.ResourceURL != "/local/b/b.js" {
		t.Errorf("unexpected resource url: %s", plan.ResourceURL)
	}
}

func TestPlanFromJSAsset(t *testing.T) {
	plan, err := NewPlacer().Plan(target("a/b", models.VersionInfo{Name: "1.0", AssetName: "b-card.js"}), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	m := plan.Moves[0]
	if !m.FromAsset || m.Compress || m.Dest != filepath.Join("/config", "www", "b", "b-card.js") {
		t.Errorf("unexpected move: %+v", m)
	}
	if plan.ResourceURL != "/local/b/b-card.js" {
		t.Errorf("unexpected resource url: %s", plan.ResourceURL)
	}
}

func TestPlanCardNotFound(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{{Path: "dist/other.js"}})

	_, err := NewPlacer().Plan(target("a/b", models.VersionInfo{Name: "1.0", AssetName: "b.zip"}), tree)
	if !models.IsErrorType(err, models.ErrCardAssetNotFound) {
		t.Errorf("expected CardAssetNotFound, got %v", err)
	}

	_, err = NewPlacer().Plan(target("a/b", models.VersionInfo{Name: "1.0", AssetName: "b.zip", Filename: "x.js"}), tree)
	if !models.IsErrorType(err, models.ErrCardAssetNotFound) {
		t.Errorf("expected CardAssetNotFound with override, got %v", err)
	}
}
