package depbuild

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// CompressOutput packs the staged install tree under outputRoot into a
// brotli-compressed tar archive at destPath. Entries are written in the
// lexical walk order with normalized ownership and timestamps so two packs
// of identical trees produce identical archives.
func CompressOutput(ctx context.Context, outputRoot, destPath string) error {
	log(ctx).Info().Msgf("Packing %s into %s", outputRoot, destPath)

	err := os.MkdirAll(filepath.Dir(destPath), os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "Failed to create directory %s", filepath.Dir(destPath))
	}

	handle, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", destPath)
	}
	defer handle.Close()

	brw := brotli.NewWriterLevel(handle, brotli.BestCompression)
	archive := tar.NewWriter(brw)

	err = filepath.Walk(outputRoot, func(itemPath string, info os.FileInfo, err error) error {
		if err != nil {
			return eris.Wrapf(err, "Failed to walk %s", itemPath)
		}

		if itemPath == outputRoot {
			return nil
		}

		relPath, err := filepath.Rel(outputRoot, itemPath)
		if err != nil {
			return eris.Wrapf(err, "Failed to resolve %s", itemPath)
		}

		linkTarget := ""
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(itemPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to read symlink %s", itemPath)
			}
		}

		header, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return eris.Wrapf(err, "Failed to build tar header for %s", itemPath)
		}

		header.Name = filepath.ToSlash(relPath)
		if info.IsDir() {
			header.Name += "/"
		}

		// Normalize everything that would make the archive differ between
		// two otherwise identical builds.
		header.ModTime = time.Unix(0, 0)
		header.AccessTime = time.Time{}
		header.ChangeTime = time.Time{}
		header.Uid = 0
		header.Gid = 0
		header.Uname = ""
		header.Gname = ""

		err = archive.WriteHeader(header)
		if err != nil {
			return eris.Wrapf(err, "Failed to write tar header for %s", itemPath)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		itemHandle, err := os.Open(itemPath)
		if err != nil {
			return eris.Wrapf(err, "Failed to open %s", itemPath)
		}
		defer itemHandle.Close()

		_, err = io.Copy(archive, itemHandle)
		if err != nil {
			return eris.Wrapf(err, "Failed to compress %s", itemPath)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = archive.Close()
	if err != nil {
		return eris.Wrapf(err, "Failed to finish tar archive %s", destPath)
	}

	err = brw.Close()
	if err != nil {
		return eris.Wrapf(err, "Failed to finish compression of %s", destPath)
	}

	return handle.Close()
}
