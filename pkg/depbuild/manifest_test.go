package depbuild

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
)

const testManifestYaml = `deps:
  libwidget:
    url: https://example.invalid/libwidget-1.0.0.tar.xz
    version: 1.0.0
    sha256: a3edc9ad05617bf12442d201cb4cbd689e4c61a1fdbdcf73e4713ee8e7623bbb
    size: 12345
`

func TestLoadManifest(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "deps.yml")
	if err := ioutil.WriteFile(manifestPath, []byte(testManifestYaml), 0644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec, err := manifest.Lookup("libwidget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spec.Version != "1.0.0" {
		t.Errorf("version is %s, expected 1.0.0", spec.Version)
	}
	if spec.Size != 12345 {
		t.Errorf("size is %d, expected 12345", spec.Size)
	}
	if spec.ArchiveName() != "libwidget-1.0.0.tar.xz" {
		t.Errorf("archive name is %s", spec.ArchiveName())
	}
	if spec.SourceDirName() != "libwidget-1.0.0" {
		t.Errorf("source dir name is %s", spec.SourceDirName())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid yaml",
			content: "deps: [",
		},
		{
			name: "missing url",
			content: `deps:
  libwidget:
    version: 1.0.0
`,
		},
		{
			name: "missing version",
			content: `deps:
  libwidget:
    url: https://example.invalid/libwidget-1.0.0.tar.xz
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			manifestPath := filepath.Join(t.TempDir(), "deps.yml")
			if err := ioutil.WriteFile(manifestPath, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := LoadManifest(manifestPath); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestManifestLookupUnknown(t *testing.T) {
	manifest := &Manifest{Deps: map[string]DependencySpec{}}

	_, err := manifest.Lookup("libnothing")
	if err == nil {
		t.Fatal("expected an error")
	}

	if !eris.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
}
