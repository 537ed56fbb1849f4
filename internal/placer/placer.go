// Package placer decides where the files of an extracted release go on
// the host. Placers are pure: they read a scanner.Tree and return a Plan,
// and the installer carries the plan out.
package placer

import (
	"path/filepath"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/scanner"
)

// Host directory names inside the Home Assistant config directory
const (
	ComponentsDir = "custom_components"
	ThemesDir     = "themes"
	WebDir        = "www"
)

// Target is the release being placed
type Target struct {
	// ConfigDir is the Home Assistant configuration directory
	ConfigDir string

	Package *models.PackageDescriptor
	Version *models.VersionInfo

	// RootName is the name of the extraction directory. A component found
	// at the root of the archive is installed under this name.
	RootName string
}

// Move relocates one entry of the extraction tree onto the host
type Move struct {
	// Source is the slash-separated path relative to the extraction root
	Source string

	// FromAsset moves the downloaded asset itself instead of an entry
	FromAsset bool

	// Dest is the absolute host path. Anything already there is replaced.
	Dest string

	// Rewrite replaces legacy "hacsfiles" paths with "local" before moving
	Rewrite bool

	// Compress writes a gzip sidecar next to Dest after moving
	Compress bool
}

// Plan is the placement decision for a release
type Plan struct {
	Moves []Move

	// Directories are created when missing once the moves are done
	Directories []string

	// Paths is recorded in the installed catalog
	Paths models.InstalledPaths

	// ResourceURL is the dashboard resource prefix to register, if any
	ResourceURL string
}

// Placer decides placement for one package type
type Placer interface {
	// Plan computes the moves for a release. tree is nil when the asset
	// was not extracted.
	Plan(target *Target, tree *scanner.Tree) (*Plan, error)

	// GetSupportedType returns the package type this placer supports
	GetSupportedType() models.PackageType
}

// HostPath joins a slash-separated host-relative path onto the config dir
func HostPath(configDir string, elem ...string) string {
	return filepath.Join(append([]string{configDir}, elem...)...)
}
