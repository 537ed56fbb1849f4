package scanner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// AssetFormat is the packaging of a downloaded release asset
type AssetFormat int

const (
	FormatUnknown AssetFormat = iota
	FormatZip
	FormatTarGz
	FormatTarXz
	FormatTarZst
	FormatJS
)

// String returns the string representation of AssetFormat
func (f AssetFormat) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTarGz:
		return "tar.gz"
	case FormatTarXz:
		return "tar.xz"
	case FormatTarZst:
		return "tar.zst"
	case FormatJS:
		return "js"
	default:
		return "unknown"
	}
}

// IsArchive reports whether the format needs extraction
func (f AssetFormat) IsArchive() bool {
	switch f {
	case FormatZip, FormatTarGz, FormatTarXz, FormatTarZst:
		return true
	default:
		return false
	}
}

// Magic bytes for archive detection
var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// DetectFormat determines the asset format from its file name
func DetectFormat(name string) AssetFormat {
	lower := strings.ToLower(name)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar.xz"):
		return FormatTarXz
	case strings.HasSuffix(lower, ".tar.zst"):
		return FormatTarZst
	case strings.HasSuffix(lower, ".js"):
		return FormatJS
	default:
		return FormatUnknown
	}
}

// CheckMagic verifies that the file at path starts with the magic bytes of
// format. Formats without magic bytes always pass.
func CheckMagic(path string, format AssetFormat) error {
	var magic []byte
	switch format {
	case FormatZip:
		magic = zipMagic
	case FormatTarGz:
		magic = gzipMagic
	case FormatTarXz:
		magic = xzMagic
	case FormatTarZst:
		magic = zstdMagic
	default:
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("file too short to be a %s archive", format)
	}

	if !bytes.Equal(header, magic) {
		return fmt.Errorf("file is not a %s archive", format)
	}
	return nil
}
