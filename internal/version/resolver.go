// Package version picks the release of a package that is compatible with
// the running Home Assistant version.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/sirupsen/logrus"
)

// HostVersionFile is the file Home Assistant writes its version to
const HostVersionFile = ".HA_VERSION"

// ParseHost parses a host version string
func ParseHost(v string) (*goversion.Version, error) {
	hv, err := goversion.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("invalid host version %q: %w", v, err)
	}
	return hv, nil
}

// ReadHost reads the host version from a Home Assistant config directory
func ReadHost(configDir string) (*goversion.Version, error) {
	data, err := os.ReadFile(filepath.Join(configDir, HostVersionFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read host version: %w", err)
	}
	return ParseHost(string(data))
}

// Compatible reports whether a release declaring constraint may be
// installed on host. The constraint is the highest host version the
// release supports: it is accepted when constraint >= host.
func Compatible(constraint string, host *goversion.Version) bool {
	if constraint == "" {
		return true
	}

	c, err := goversion.NewVersion(constraint)
	if err != nil {
		logrus.Warnf("Ignoring release with unparseable host constraint %q: %v", constraint, err)
		return false
	}

	return c.GreaterThanOrEqual(host)
}

// ResolveCompatible returns the first release in input order that is
// compatible with host. It does not look for the newest one.
func ResolveCompatible(versions []models.VersionInfo, host *goversion.Version) (*models.VersionInfo, bool) {
	for i := range versions {
		if Compatible(versions[i].HostVersion, host) {
			return &versions[i], true
		}
	}
	return nil, false
}

// HasUpdate reports whether the compatible release differs from the
// installed one. No compatible release means no update.
func HasUpdate(installedName string, versions []models.VersionInfo, host *goversion.Version) bool {
	v, ok := ResolveCompatible(versions, host)
	if !ok {
		return false
	}
	return v.Name != installedName
}
