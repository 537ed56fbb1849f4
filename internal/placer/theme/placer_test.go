package theme

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/scanner"
)

func target() *placer.Target {
	return &placer.Target{
		ConfigDir: "/config",
		Package:   &models.PackageDescriptor{ID: "owner/ios-themes", Type: models.TypeTheme},
		Version:   &models.VersionInfo{Name: "1.0", AssetName: "ios-themes.zip"},
		RootName:  "ios-themes",
	}
}

func TestFindThemeDirs(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{
		{Path: "repo/themes/ios.yaml"},
		{Path: "repo/themes/themes/inner.yaml"},
		{Path: "repo/extra/themes/dark.yaml"},
		{Path: "repo/themes.md"},
	})

	got := FindThemeDirs(tree)
	want := []string{"repo/themes", "repo/extra/themes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindThemeDirs = %v, want %v", got, want)
	}
}

func TestPlan(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{
		{Path: "repo/themes/ios.yaml"},
		{Path: "repo/themes/backgrounds/sky.png"},
		{Path: "repo/themes/README.txt"},
	})

	plan, err := NewPlacer().Plan(target(), tree)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	themeDir := filepath.Join("/config", "themes", "ios-themes")
	if plan.Paths.ThemeDirectory != themeDir {
		t.Errorf("expected theme directory %s, got %s", themeDir, plan.Paths.ThemeDirectory)
	}
	if len(plan.Moves) != 3 {
		t.Fatalf("expected 3 moves, got %+v", plan.Moves)
	}

	rewrites := map[string]bool{}
	for _, m := range plan.Moves {
		rewrites[filepath.Base(m.Dest)] = m.Rewrite
		if filepath.Dir(m.Dest) != themeDir {
			t.Errorf("move %s lands outside theme directory", m.Dest)
		}
	}
	if !rewrites["ios.yaml"] {
		t.Error("yaml file should be rewritten")
	}
	if rewrites["README.txt"] || rewrites["backgrounds"] {
		t.Error("only yaml files should be rewritten")
	}
}

func TestPlanThemeNotFound(t *testing.T) {
	tree := scanner.NewTree([]scanner.Entry{{Path: "repo/ios.yaml"}})

	_, err := NewPlacer().Plan(target(), tree)
	if !models.IsErrorType(err, models.ErrThemeNotFound) {
		t.Errorf("expected ThemeNotFound, got %v", err)
	}
}
