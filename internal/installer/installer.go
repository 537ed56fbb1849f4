// Package installer downloads release assets and places them on the host.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/placer/card"
	"github.com/hass-box/hassbox-store/internal/placer/integration"
	"github.com/hass-box/hassbox-store/internal/placer/theme"
	"github.com/hass-box/hassbox-store/internal/resources"
	"github.com/hass-box/hassbox-store/internal/scanner"
	"github.com/hass-box/hassbox-store/internal/utils"
	"github.com/hass-box/hassbox-store/internal/verify"
	"github.com/hass-box/hassbox-store/internal/version"
	"github.com/sirupsen/logrus"
)

// SignatureSuffix is appended to an asset URL to locate its signature
const SignatureSuffix = ".asc"

// Downloader fetches release assets
type Downloader interface {
	AssetURL(id, version, asset string) string
	Download(ctx context.Context, url string) ([]byte, error)
}

// Resources is the dashboard resource registry
type Resources interface {
	Upsert(prefix string) (string, error)
	Remove(prefix string) error
}

// Host describes the Home Assistant instance being installed into
type Host struct {
	ConfigDir string
	Version   *goversion.Version
}

// Installer installs and removes packages
type Installer struct {
	downloader Downloader
	resources  Resources
	verifier   verify.Verifier
	scanner    scanner.Scanner
	placers    map[models.PackageType]placer.Placer
}

// NewInstaller creates an installer. verifier may be nil, in which case
// assets are not signature-checked.
func NewInstaller(downloader Downloader, res Resources, verifier verify.Verifier) *Installer {
	placers := make(map[models.PackageType]placer.Placer)
	for _, p := range []placer.Placer{integration.NewPlacer(), theme.NewPlacer(), card.NewPlacer()} {
		placers[p.GetSupportedType()] = p
	}

	return &Installer{
		downloader: downloader,
		resources:  res,
		verifier:   verifier,
		scanner:    scanner.NewFileSystemScanner(),
		placers:    placers,
	}
}

// Install downloads the compatible release of pkg and places it on the
// host. Nothing is recorded in the installed catalog; that is left to the
// caller.
func (i *Installer) Install(ctx context.Context, host Host, pkg *models.PackageDescriptor) (*models.InstalledRecord, error) {
	if err := pkg.Normalize(); err != nil {
		return nil, &models.StoreError{Type: models.ErrInvalidConfig, Package: pkg.ID, Err: err}
	}

	p, ok := i.placers[pkg.Type]
	if !ok {
		return nil, &models.StoreError{
			Type:    models.ErrInvalidConfig,
			Package: pkg.ID,
			Err:     fmt.Errorf("unknown package type %q", pkg.Type),
		}
	}

	v, ok := version.ResolveCompatible(pkg.Versions, host.Version)
	if !ok {
		return nil, &models.StoreError{
			Type:    models.ErrNoCompatibleVersion,
			Package: pkg.ID,
			Err:     fmt.Errorf("no release supports Home Assistant %s", host.Version),
		}
	}

	logrus.Infof("Installing %s %s (%s)", pkg.ID, v.Name, v.AssetName)

	data, err := i.fetch(ctx, pkg, v)
	if err != nil {
		return nil, err
	}

	work, err := newScratch()
	if err != nil {
		return nil, &models.StoreError{
			Type:    models.ErrWriteFailed,
			Package: pkg.ID,
			Err:     fmt.Errorf("failed to create scratch directory: %w", err),
		}
	}
	defer work.Close()

	assetPath := work.path(filepath.Base(v.AssetName))
	if err := utils.WriteFile(assetPath, data, 0644); err != nil || !utils.Exists(assetPath) {
		return nil, &models.StoreError{
			Type:    models.ErrWriteFailed,
			Package: pkg.ID,
			Err:     fmt.Errorf("could not save %s: %v", v.AssetName, err),
		}
	}

	rootName := assetStem(v.AssetName)
	extractDir := work.path(rootName)

	tree, err := i.unpack(ctx, pkg, v, assetPath, extractDir)
	if err != nil {
		return nil, err
	}

	plan, err := p.Plan(&placer.Target{
		ConfigDir: host.ConfigDir,
		Package:   pkg,
		Version:   v,
		RootName:  rootName,
	}, tree)
	if err != nil {
		return nil, err
	}

	if err := i.apply(host.ConfigDir, plan, assetPath, extractDir); err != nil {
		return nil, &models.StoreError{Type: models.ErrWriteFailed, Package: pkg.ID, Err: err}
	}

	if plan.ResourceURL != "" && i.resources != nil {
		if _, err := i.resources.Upsert(plan.ResourceURL); err != nil {
			return nil, &models.StoreError{
				Type:    models.ErrStorage,
				Package: pkg.ID,
				Err:     fmt.Errorf("failed to register resource %s: %w", plan.ResourceURL, err),
			}
		}
	}

	rec := models.NewInstalledRecord(pkg, v.Name)
	rec.InstalledPaths = plan.Paths

	logrus.Infof("Installed %s %s", pkg.ID, v.Name)
	return rec, nil
}

func (i *Installer) fetch(ctx context.Context, pkg *models.PackageDescriptor, v *models.VersionInfo) ([]byte, error) {
	url := i.downloader.AssetURL(pkg.ID, v.Name, v.AssetName)

	data, err := i.downloader.Download(ctx, url)
	if err != nil {
		return nil, &models.StoreError{Type: models.ErrDownloadFailed, Package: pkg.ID, Err: err}
	}
	logrus.Debugf("Downloaded %s (%d bytes, sha256 %s)", v.AssetName, len(data), utils.CalculateChecksum(data, utils.SHA256))

	if i.verifier == nil {
		return data, nil
	}

	sig, err := i.downloader.Download(ctx, url+SignatureSuffix)
	if err != nil {
		return nil, &models.StoreError{
			Type:    models.ErrSignatureInvalid,
			Package: pkg.ID,
			Err:     fmt.Errorf("signature unavailable: %w", err),
		}
	}
	if err := i.verifier.VerifyDetached(data, sig); err != nil {
		return nil, &models.StoreError{Type: models.ErrSignatureInvalid, Package: pkg.ID, Err: err}
	}

	return data, nil
}

// unpack extracts archives and lists their contents. A raw card module is
// left as is and yields no tree.
func (i *Installer) unpack(ctx context.Context, pkg *models.PackageDescriptor, v *models.VersionInfo, assetPath, extractDir string) (*scanner.Tree, error) {
	format := scanner.DetectFormat(v.AssetName)

	if format == scanner.FormatJS && pkg.Type == models.TypeCard {
		return nil, nil
	}

	if !format.IsArchive() {
		return nil, &models.StoreError{
			Type:    models.ErrExtractFailed,
			Package: pkg.ID,
			Err:     fmt.Errorf("unsupported asset format: %s", v.AssetName),
		}
	}

	if err := scanner.CheckMagic(assetPath, format); err != nil {
		return nil, &models.StoreError{Type: models.ErrExtractFailed, Package: pkg.ID, Err: err}
	}

	logrus.Debugf("Extracting %s as %s", v.AssetName, format)
	if err := Extract(ctx, assetPath, extractDir, format); err != nil {
		return nil, &models.StoreError{
			Type:    models.ErrExtractFailed,
			Package: pkg.ID,
			Err:     fmt.Errorf("failed to extract %s: %w", v.AssetName, err),
		}
	}

	tree, err := i.scanner.Scan(ctx, extractDir)
	if err != nil {
		return nil, &models.StoreError{Type: models.ErrExtractFailed, Package: pkg.ID, Err: err}
	}
	return tree, nil
}

func (i *Installer) apply(configDir string, plan *placer.Plan, assetPath, extractDir string) error {
	for _, m := range plan.Moves {
		if !within(configDir, m.Dest) {
			return fmt.Errorf("refusing to place %s outside %s", m.Dest, configDir)
		}
	}
	for _, dir := range plan.Directories {
		if !within(configDir, dir) {
			return fmt.Errorf("refusing to create %s outside %s", dir, configDir)
		}
	}

	for _, m := range plan.Moves {
		src := assetPath
		if !m.FromAsset {
			src = filepath.Join(extractDir, filepath.FromSlash(m.Source))
		}

		if m.Rewrite {
			if err := utils.ReplaceInFile(src, "hacsfiles", "local"); err != nil {
				logrus.Errorf("Could not replace hacsfiles in %s: %v", src, err)
			}
		}

		if err := utils.Replace(src, m.Dest); err != nil {
			return fmt.Errorf("failed to move %s to %s: %w", filepath.Base(src), m.Dest, err)
		}
		logrus.Debugf("Placed %s", m.Dest)

		if m.Compress {
			if err := utils.GzipFile(m.Dest, m.Dest+".gz"); err != nil {
				return fmt.Errorf("failed to compress %s: %w", m.Dest, err)
			}
		}
	}

	for _, dir := range plan.Directories {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// Remove deletes the files of an installed package. Cards also lose their
// dashboard resource. A recorded directory that no longer exists yields a
// PathNotFound error after everything else has been removed.
func (i *Installer) Remove(ctx context.Context, rec *models.InstalledRecord) error {
	if rec.Type == models.TypeCard && rec.CardName != "" && i.resources != nil {
		if err := i.resources.Remove(resources.LocalURL(rec.ShortID(), rec.CardName)); err != nil {
			return &models.StoreError{Type: models.ErrStorage, Package: rec.ID, Err: err}
		}
	}

	dirs := rec.Directories()
	if len(dirs) == 0 {
		return &models.StoreError{
			Type:    models.ErrPathNotFound,
			Package: rec.ID,
			Err:     fmt.Errorf("no installed directory recorded"),
		}
	}

	for _, dir := range dirs {
		if !ownedDir(dir) {
			return &models.StoreError{
				Type:    models.ErrInvalidConfig,
				Package: rec.ID,
				Err:     fmt.Errorf("refusing to remove %s: not a package directory", dir),
			}
		}
	}

	var missing []string
	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !utils.Exists(dir) {
			missing = append(missing, dir)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return &models.StoreError{
				Type:    models.ErrWriteFailed,
				Package: rec.ID,
				Err:     fmt.Errorf("failed to remove %s: %w", dir, err),
			}
		}
		logrus.Infof("Removed %s", dir)
	}

	if len(missing) > 0 {
		return &models.StoreError{
			Type:    models.ErrPathNotFound,
			Package: rec.ID,
			Err:     fmt.Errorf("%s does not exist", strings.Join(missing, ", ")),
		}
	}
	return nil
}

// within reports whether p lies strictly below root
func within(root, p string) bool {
	clean := filepath.Clean(root)
	return strings.HasPrefix(filepath.Clean(p), clean+string(os.PathSeparator))
}

// ownedDir reports whether dir sits directly inside one of the host
// directories packages are installed to
func ownedDir(dir string) bool {
	clean := filepath.Clean(dir)
	switch filepath.Base(filepath.Dir(clean)) {
	case placer.ComponentsDir, placer.ThemesDir, placer.WebDir:
		return true
	}
	return false
}

// assetStem is the asset name up to its first dot
func assetStem(name string) string {
	base := filepath.Base(name)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
