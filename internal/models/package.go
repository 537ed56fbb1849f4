package models

import (
	"fmt"
	"strings"
)

// PackageType is the kind of installable unit
type PackageType string

const (
	TypeIntegration PackageType = "integration"
	TypeTheme       PackageType = "theme"
	TypeCard        PackageType = "card"
)

// Valid reports whether t is one of the known package types
func (t PackageType) Valid() bool {
	switch t {
	case TypeIntegration, TypeTheme, TypeCard:
		return true
	default:
		return false
	}
}

// StoreIntegrationID is the catalog id of the store component itself.
// It is offered as an update but never recorded as installed.
const StoreIntegrationID = "hass-box/hassbox-integration"

// VersionInfo is one release of a package
type VersionInfo struct {
	Name      string `json:"name"`
	AssetName string `json:"assets_name"`

	// Filename overrides the card file to look for inside the archive
	Filename string `json:"filename,omitempty"`

	// HostVersion is the host-version constraint of this release. Empty
	// means the release is compatible with every host.
	HostVersion string `json:"homeassistant,omitempty"`
}

// PackageDescriptor is a catalog entry as served by the store
type PackageDescriptor struct {
	ID          string        `json:"id"`
	Type        PackageType   `json:"type"`
	Name        string        `json:"name"`
	Extra       string        `json:"extra,omitempty"`
	StarCount   int           `json:"star_count"`
	ForksCount  int           `json:"forks_count"`
	HostVersion string        `json:"homeassistant,omitempty"`
	Versions    []VersionInfo `json:"version_simple"`
}

// ShortID returns the repository part of an "owner/repo" id
func (p *PackageDescriptor) ShortID() string {
	return ShortID(p.ID)
}

// DisplayName returns the name shown to users, including the extra suffix
func (p *PackageDescriptor) DisplayName() string {
	return p.Name + p.Extra
}

// Validate checks the descriptor fields that installation relies on
func (p *PackageDescriptor) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("package missing id")
	}
	parts := strings.Split(p.ID, "/")
	if len(parts) != 2 || !pathElement(parts[0]) || !pathElement(parts[1]) {
		return fmt.Errorf("package id %q is not of the form owner/repo", p.ID)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("package %s has unknown type %q", p.ID, p.Type)
	}
	for _, v := range p.Versions {
		if v.Name == "" || v.AssetName == "" {
			return fmt.Errorf("package %s has a version without name or asset", p.ID)
		}
		if !pathElement(v.AssetName) {
			return fmt.Errorf("package %s has an invalid asset name %q", p.ID, v.AssetName)
		}
		if v.Filename != "" && !pathElement(v.Filename) {
			return fmt.Errorf("package %s has an invalid file name %q", p.ID, v.Filename)
		}
	}
	return nil
}

// pathElement reports whether s can be used as a single file name on the
// host: not empty, not "." or "..", and free of path separators
func pathElement(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// Normalize validates the descriptor and pushes the package-level host
// constraint down to every version that does not declare its own.
func (p *PackageDescriptor) Normalize() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Name == "" {
		p.Name = p.ShortID()
	}
	for i := range p.Versions {
		if p.Versions[i].HostVersion == "" {
			p.Versions[i].HostVersion = p.HostVersion
		}
	}
	return nil
}

// InstalledPaths holds where a package was placed on the host
type InstalledPaths struct {
	// Integration
	ComponentDirectory   string   `json:"component_directory,omitempty"`
	ComponentName        string   `json:"component_name,omitempty"`
	ComponentDirectories []string `json:"component_directories,omitempty"`

	// Theme
	ThemeDirectory string `json:"theme_directory,omitempty"`

	// Card
	CardDirectory string `json:"card_directory,omitempty"`
	CardName      string `json:"card_name,omitempty"`
}

// InstalledRecord is the snapshot kept for an installed package. It drops
// the version list and keeps the resolved version and placement paths.
type InstalledRecord struct {
	ID          string      `json:"id"`
	Type        PackageType `json:"type"`
	Name        string      `json:"name"`
	Extra       string      `json:"extra,omitempty"`
	StarCount   int         `json:"star_count"`
	ForksCount  int         `json:"forks_count"`
	HostVersion string      `json:"homeassistant,omitempty"`
	VersionName string      `json:"version_name"`

	InstalledPaths
}

// NewInstalledRecord snapshots a descriptor at the given version
func NewInstalledRecord(p *PackageDescriptor, version string) *InstalledRecord {
	return &InstalledRecord{
		ID:          p.ID,
		Type:        p.Type,
		Name:        p.Name,
		Extra:       p.Extra,
		StarCount:   p.StarCount,
		ForksCount:  p.ForksCount,
		HostVersion: p.HostVersion,
		VersionName: version,
	}
}

// ShortID returns the repository part of an "owner/repo" id
func (r *InstalledRecord) ShortID() string {
	return ShortID(r.ID)
}

// DisplayName returns the name shown to users, including the extra suffix
func (r *InstalledRecord) DisplayName() string {
	return r.Name + r.Extra
}

// Directories returns every directory owned by the installed package
func (r *InstalledRecord) Directories() []string {
	switch r.Type {
	case TypeIntegration:
		if len(r.ComponentDirectories) > 0 {
			return r.ComponentDirectories
		}
		if r.ComponentDirectory != "" {
			return []string{r.ComponentDirectory}
		}
	case TypeTheme:
		if r.ThemeDirectory != "" {
			return []string{r.ThemeDirectory}
		}
	case TypeCard:
		if r.CardDirectory != "" {
			return []string{r.CardDirectory}
		}
	}
	return nil
}

// ShortID returns the part of id after the first slash, or id itself
func ShortID(id string) string {
	if i := strings.Index(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
