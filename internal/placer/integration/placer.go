// Package integration places custom components.
package integration

import (
	"fmt"
	"path"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/scanner"
	"github.com/sirupsen/logrus"
)

// ManifestFile marks the root directory of a component
const ManifestFile = "manifest.json"

// Component is a component directory found in a release
type Component struct {
	// Source is the directory path relative to the extraction root
	Source string
	Name   string
}

// FindComponents walks the tree depth-first. The first directory holding
// a manifest is the only component. Otherwise every manifest-holding
// child of a custom_components directory is a component. The walk stops
// at the first directory that yields any component.
func FindComponents(tree *scanner.Tree, rootName string) []Component {
	var found []Component

	tree.Walk(func(dir string) bool {
		if tree.HasFile(dir, ManifestFile) {
			name := rootName
			if dir != "" {
				name = path.Base(dir)
			}
			found = append(found, Component{Source: dir, Name: name})
			return false
		}

		for _, child := range tree.Children(dir) {
			if !child.IsDir || child.Name() != placer.ComponentsDir {
				continue
			}
			for _, c := range tree.Children(child.Path) {
				if c.IsDir && tree.HasFile(c.Path, ManifestFile) {
					found = append(found, Component{Source: c.Path, Name: c.Name()})
				}
			}
		}

		return len(found) == 0
	})

	return found
}

// Placer implements the placer.Placer interface for integrations
type Placer struct{}

// NewPlacer creates a new integration placer
func NewPlacer() placer.Placer {
	return &Placer{}
}

// Plan moves every component into custom_components, replacing any
// existing directory of the same name
func (p *Placer) Plan(target *placer.Target, tree *scanner.Tree) (*placer.Plan, error) {
	if tree == nil {
		return nil, &models.StoreError{
			Type:    models.ErrComponentNotFound,
			Package: target.Package.ID,
			Err:     fmt.Errorf("asset %s is not an archive", target.Version.AssetName),
		}
	}

	components := FindComponents(tree, target.RootName)
	if len(components) == 0 {
		return nil, &models.StoreError{
			Type:    models.ErrComponentNotFound,
			Package: target.Package.ID,
			Err:     fmt.Errorf("no %s found in %s", ManifestFile, target.Version.AssetName),
		}
	}

	plan := &placer.Plan{}
	for _, c := range components {
		dest := placer.HostPath(target.ConfigDir, placer.ComponentsDir, c.Name)
		logrus.Debugf("Component %s found at %q", c.Name, c.Source)

		plan.Moves = append(plan.Moves, placer.Move{Source: c.Source, Dest: dest})
		plan.Paths.ComponentDirectories = append(plan.Paths.ComponentDirectories, dest)
		plan.Paths.ComponentDirectory = dest
		plan.Paths.ComponentName = c.Name
	}

	return plan, nil
}

// GetSupportedType returns the package type this placer supports
func (p *Placer) GetSupportedType() models.PackageType {
	return models.TypeIntegration
}
