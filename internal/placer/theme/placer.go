// Package theme places theme files.
package theme

import (
	"fmt"
	"strings"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/scanner"
)

// FindThemeDirs returns every directory named "themes" in walk order,
// skipping those nested inside an earlier match.
func FindThemeDirs(tree *scanner.Tree) []string {
	var dirs []string

	tree.Walk(func(dir string) bool {
		for _, child := range tree.Children(dir) {
			if child.IsDir && child.Name() == placer.ThemesDir && !nested(child.Path, dirs) {
				dirs = append(dirs, child.Path)
			}
		}
		return true
	})

	return dirs
}

func nested(p string, parents []string) bool {
	for _, parent := range parents {
		if strings.HasPrefix(p, parent+"/") {
			return true
		}
	}
	return false
}

// Placer implements the placer.Placer interface for themes
type Placer struct{}

// NewPlacer creates a new theme placer
func NewPlacer() placer.Placer {
	return &Placer{}
}

// Plan moves the contents of every themes directory into
// themes/<short id>. YAML files get their legacy paths rewritten.
func (p *Placer) Plan(target *placer.Target, tree *scanner.Tree) (*placer.Plan, error) {
	var dirs []string
	if tree != nil {
		dirs = FindThemeDirs(tree)
	}
	if len(dirs) == 0 {
		return nil, &models.StoreError{
			Type:    models.ErrThemeNotFound,
			Package: target.Package.ID,
			Err:     fmt.Errorf("no %s directory found in %s", placer.ThemesDir, target.Version.AssetName),
		}
	}

	themeDir := placer.HostPath(target.ConfigDir, placer.ThemesDir, target.Package.ShortID())
	plan := &placer.Plan{
		Directories: []string{themeDir},
		Paths:       models.InstalledPaths{ThemeDirectory: themeDir},
	}

	for _, dir := range dirs {
		for _, child := range tree.Children(dir) {
			plan.Moves = append(plan.Moves, placer.Move{
				Source:  child.Path,
				Dest:    placer.HostPath(themeDir, child.Name()),
				Rewrite: !child.IsDir && strings.HasSuffix(child.Name(), ".yaml"),
			})
		}
	}

	return plan, nil
}

// GetSupportedType returns the package type this placer supports
func (p *Placer) GetSupportedType() models.PackageType {
	return models.TypeTheme
}
