// Package card places dashboard card modules.
package card

import (
	"fmt"
	"strings"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/placer"
	"github.com/hass-box/hassbox-store/internal/resources"
	"github.com/hass-box/hassbox-store/internal/scanner"
	"github.com/sirupsen/logrus"
)

// Candidates returns the file names accepted as the card module, in order
// of preference
func Candidates(shortID, override string) []string {
	if override != "" {
		return []string{override}
	}
	return []string{
		strings.TrimPrefix(shortID, "lovelace-") + ".js",
		shortID + ".js",
		shortID + ".umd.js",
		shortID + "-bundle.js",
	}
}

// FindCard returns the first file in walk order whose name is one of the
// candidates
func FindCard(tree *scanner.Tree, candidates []string) (scanner.Entry, bool) {
	for _, f := range tree.Files() {
		for _, c := range candidates {
			if f.Name() == c {
				return f, true
			}
		}
	}
	return scanner.Entry{}, false
}

// Placer implements the placer.Placer interface for cards
type Placer struct{}

// NewPlacer creates a new card placer
func NewPlacer() placer.Placer {
	return &Placer{}
}

// Plan moves the card module into www/<short id>. A module taken from an
// archive also gets a pre-compressed sidecar.
func (p *Placer) Plan(target *placer.Target, tree *scanner.Tree) (*placer.Plan, error) {
	short := target.Package.ShortID()
	cardDir := placer.HostPath(target.ConfigDir, placer.WebDir, short)

	var move placer.Move
	var cardName string

	if scanner.DetectFormat(target.Version.AssetName) == scanner.FormatJS {
		cardName = target.Version.AssetName
		move = placer.Move{FromAsset: true, Dest: placer.HostPath(cardDir, cardName)}
	} else {
		candidates := Candidates(short, target.Version.Filename)

		var entry scanner.Entry
		found := false
		if tree != nil {
			entry, found = FindCard(tree, candidates)
		}
		if !found {
			return nil, &models.StoreError{
				Type:    models.ErrCardAssetNotFound,
				Package: target.Package.ID,
				Err:     fmt.Errorf("none of %s found in %s", strings.Join(candidates, ", "), target.Version.AssetName),
			}
		}

		logrus.Debugf("Card module found at %s", entry.Path)
		cardName = entry.Name()
		move = placer.Move{Source: entry.Path, Dest: placer.HostPath(cardDir, cardName), Compress: true}
	}

	return &placer.Plan{
		Moves:       []placer.Move{move},
		Directories: []string{cardDir},
		Paths: models.InstalledPaths{
			CardDirectory: cardDir,
			CardName:      cardName,
		},
		ResourceURL: resources.LocalURL(short, cardName),
	}, nil
}

// GetSupportedType returns the package type this placer supports
func (p *Placer) GetSupportedType() models.PackageType {
	return models.TypeCard
}
