package depbuild

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// Fetch downloads every archive from the manifest that is missing from
// downloadDir or whose manifest entry changed since the last run. The sha256
// is verified while streaming; a mismatch is fatal and leaves no archive
// behind. A stamps file in downloadDir records which archives are up to date.
func Fetch(ctx context.Context, manifest *Manifest, downloadDir string) error {
	err := os.MkdirAll(downloadDir, os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "Failed to create download directory %s", downloadDir)
	}

	stampPath := filepath.Join(downloadDir, "deps.stamps")
	stamps, err := readStamps(stampPath)
	if err != nil {
		return err
	}

	client := &http.Client{
		Timeout: time.Minute * 30,
	}

	for name, spec := range manifest.Deps {
		archivePath := filepath.Join(downloadDir, spec.ArchiveName())
		_, err := os.Stat(archivePath)
		archiveExists := err == nil

		stampToken := spec.URL + "#" + spec.Sha256
		if archiveExists && stamps[name] == stampToken {
			continue
		}

		if spec.Sha256 == "" {
			return eris.Errorf("Dependency %s doesn't have a checksum", name)
		}

		log(ctx).Info().
			Str("dependency", name).
			Str("version", spec.Version).
			Msgf("Downloading %s", spec.URL)

		err = downloadArchive(ctx, client, spec, archivePath)
		if err != nil {
			return err
		}

		stamps[name] = stampToken
	}

	stampData, err := json.Marshal(stamps)
	if err != nil {
		return eris.Wrap(err, "Failed to serialize stamps")
	}

	err = ioutil.WriteFile(stampPath, stampData, os.FileMode(0660))
	if err != nil {
		return eris.Wrapf(err, "Failed to write stamps file %s", stampPath)
	}

	return nil
}

func readStamps(stampPath string) (map[string]string, error) {
	stamps := map[string]string{}
	stampData, err := ioutil.ReadFile(stampPath)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(err, "Failed to read stamps file %s", stampPath)
		}

		return stamps, nil
	}

	err = json.Unmarshal(stampData, &stamps)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse JSON file %s", stampPath)
	}

	return stamps, nil
}

func downloadArchive(ctx context.Context, client *http.Client, spec DependencySpec, archivePath string) error {
	tmpPath := archivePath + ".tmp"
	handle, err := os.Create(tmpPath)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", tmpPath)
	}
	defer func() {
		handle.Close()
		os.Remove(tmpPath)
	}()

	req, err := http.NewRequest("GET", spec.URL, nil)
	if err != nil {
		return eris.Wrapf(err, "Failed to build request for %s", spec.URL)
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return eris.Wrapf(err, "Failed to start download for %s", spec.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("Download of %s failed with status %d", spec.URL, resp.StatusCode)
	}

	hash := sha256.New()
	bar := getProgressBar(resp.ContentLength, "     download")
	defer bar.Finish()

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if err != nil && n < 1 {
			if err == io.EOF {
				break
			}
			return eris.Wrapf(err, "Failed during download of %s", spec.URL)
		}

		_, err = hash.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "Failed to calculate checksum for %s", spec.URL)
		}

		_, err = handle.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "Failed to write download to %s", tmpPath)
		}

		bar.Write(buf[:n])
	}

	err = handle.Close()
	if err != nil {
		return eris.Wrapf(err, "Failed to finish writing %s", tmpPath)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	if digest != spec.Sha256 {
		return eris.Errorf("Checksum check failed for %s: expected %s, got %s", spec.URL, spec.Sha256, digest)
	}

	if spec.Size > 0 {
		info, err := os.Stat(tmpPath)
		if err != nil {
			return eris.Wrapf(err, "Failed to stat %s", tmpPath)
		}

		if info.Size() != spec.Size {
			return eris.Errorf("Download of %s has size %d, expected %d", spec.URL, info.Size(), spec.Size)
		}
	}

	err = os.Rename(tmpPath, archivePath)
	if err != nil {
		return eris.Wrapf(err, "Failed to move %s into place", tmpPath)
	}

	return nil
}
