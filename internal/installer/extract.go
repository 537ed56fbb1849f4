package installer

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hass-box/hassbox-store/internal/scanner"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// Extract unpacks the archive at path into dest
func Extract(ctx context.Context, path, dest string, format scanner.AssetFormat) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	if format == scanner.FormatZip {
		return extractZip(ctx, path, dest)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Detect compression from format
	var r io.Reader
	switch format {
	case scanner.FormatTarGz:
		gr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gr.Close()
		r = gr
	case scanner.FormatTarXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return err
		}
		r = xr
	case scanner.FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(path))
	}

	return extractTar(ctx, tar.NewReader(r), dest)
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, ok := safeJoin(dest, header.Name)
		if !ok {
			logrus.Warnf("Skipping archive entry outside extraction directory: %s", header.Name)
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		default:
			logrus.Debugf("Skipping archive entry %s of type %c", header.Name, header.Typeflag)
		}
	}
}

func extractZip(ctx context.Context, path, dest string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Prevent zip-slip attacks
		target, ok := safeJoin(dest, file.Name)
		if !ok {
			logrus.Warnf("Skipping archive entry outside extraction directory: %s", file.Name)
			continue
		}

		info := file.FileInfo()
		if info.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			logrus.Debugf("Skipping non-regular archive entry %s", file.Name)
			continue
		}

		src, err := file.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, src, info.Mode().Perm())
		src.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, r)
	return err
}

// safeJoin joins an archive entry name onto dest, refusing names that
// would land outside dest
func safeJoin(dest, name string) (string, bool) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	clean := filepath.Clean(dest)
	if target != clean && !strings.HasPrefix(target, clean+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}
