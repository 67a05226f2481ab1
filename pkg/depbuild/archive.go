package depbuild

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" || os.Getenv("DEPBUILD_QUIET") != "" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// ExtractArchive unpacks the given source archive into destPath, stripping
// the first strip path elements from every entry. The archive format is
// detected from the filename. destPath is created if necessary.
func ExtractArchive(archivePath, destPath string, strip int) error {
	handle, err := os.Open(archivePath)
	if err != nil {
		return eris.Wrapf(err, "Failed to open archive %s", archivePath)
	}
	defer handle.Close()

	info, err := handle.Stat()
	if err != nil {
		return eris.Wrapf(err, "Failed to stat archive %s", archivePath)
	}

	err = os.MkdirAll(destPath, os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "Failed to create directory %s", destPath)
	}

	bar := getProgressBar(info.Size(), "      extract")
	defer bar.Finish()

	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"):
		reader, err := gzip.NewReader(handle)
		if err != nil {
			return eris.Wrapf(err, "Failed to read gzip header of %s", archivePath)
		}
		defer reader.Close()

		return extractTar(reader, handle, bar, destPath, strip)

	case strings.HasSuffix(archivePath, ".tar.bz2"):
		return extractTar(bzip2.NewReader(handle), handle, bar, destPath, strip)

	case strings.HasSuffix(archivePath, ".tar.xz"):
		reader, err := xz.NewReader(handle)
		if err != nil {
			return eris.Wrapf(err, "Failed to read xz header of %s", archivePath)
		}

		return extractTar(reader, handle, bar, destPath, strip)

	case strings.HasSuffix(archivePath, ".zip"):
		return extractZip(handle, info.Size(), bar, destPath, strip)
	}

	return eris.Errorf("Archive format of %s not supported", archivePath)
}

// openExtractorDest normalizes an archive entry path, strips the leading
// elements and opens the destination file. A nil handle with no error means
// the entry collapsed to the destination root and should be skipped.
func openExtractorDest(destPath, item string, strip int) (*os.File, string, error) {
	pathParts := strings.Split(filepath.Clean(item), string(filepath.Separator))
	if strip >= len(pathParts) {
		return nil, "", nil
	}

	dest := filepath.Join(destPath, strings.Join(pathParts[strip:], string(filepath.Separator)))
	if dest == destPath {
		return nil, "", nil
	}

	destParent := filepath.Dir(dest)
	err := os.MkdirAll(destParent, os.FileMode(0770))
	if err != nil {
		return nil, "", eris.Wrapf(err, "Failed to create directory %s", destParent)
	}

	destHandle, err := os.Create(dest)
	if err != nil {
		return nil, "", eris.Wrapf(err, "Failed to create file %s", dest)
	}

	return destHandle, dest, nil
}

func extractTar(r io.Reader, f *os.File, bar *progressbar.ProgressBar, destPath string, strip int) error {
	buf := make([]byte, 4096)
	archive := tar.NewReader(r)

	for {
		item, err := archive.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return eris.Wrap(err, "Failed to read archive entry")
		}

		fi := item.FileInfo()
		if fi.IsDir() {
			continue
		}

		destHandle, dest, err := openExtractorDest(destPath, item.Name, strip)
		if err != nil {
			return err
		}

		if destHandle == nil {
			continue
		}
		defer destHandle.Close()

		if item.Typeflag&tar.TypeSymlink == tar.TypeSymlink {
			destHandle.Close()
			err := os.Remove(dest)
			if err != nil {
				return eris.Wrapf(err, "Failed to remove placeholder file %s", dest)
			}

			err = os.Symlink(item.Linkname, dest)
			if err != nil {
				return eris.Wrapf(err, "Failed to create symlink %s pointing to %s", dest, item.Linkname)
			}
			continue
		}

		os.Chmod(dest, fi.Mode())

		for {
			n, err := archive.Read(buf)
			if err != nil && n < 1 {
				if err == io.EOF {
					break
				}
				return eris.Wrapf(err, "Failed to read archive entry %s", item.Name)
			}

			_, err = destHandle.Write(buf[:n])
			if err != nil {
				return eris.Wrapf(err, "Failed to write extracted file %s", dest)
			}

			pos, err := f.Seek(0, io.SeekCurrent)
			if err == nil {
				bar.Set64(pos)
			}
		}

		destHandle.Close()
	}

	return nil
}

func extractZip(f *os.File, size int64, bar *progressbar.ProgressBar, destPath string, strip int) error {
	archive, err := zip.NewReader(f, size)
	if err != nil {
		return eris.Wrap(err, "Failed to read zip index")
	}

	buf := make([]byte, 4096)
	for _, item := range archive.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		destHandle, dest, err := openExtractorDest(destPath, item.Name, strip)
		if err != nil {
			return err
		}

		if destHandle == nil {
			continue
		}
		defer destHandle.Close()

		itemHandle, err := item.Open()
		if err != nil {
			return eris.Wrap(err, "Failed to open archive entry")
		}
		defer itemHandle.Close()

		for {
			n, err := itemHandle.Read(buf)
			if err != nil && n < 1 {
				if err == io.EOF {
					break
				}
				return eris.Wrapf(err, "Failed to read archive entry %s", item.Name)
			}

			_, err = destHandle.Write(buf[:n])
			if err != nil {
				return eris.Wrapf(err, "Failed to write extracted file %s", dest)
			}

			pos, err := f.Seek(0, io.SeekCurrent)
			if err == nil {
				bar.Set64(pos)
			}
		}

		itemHandle.Close()
		destHandle.Close()
	}

	return nil
}
