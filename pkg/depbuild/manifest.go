package depbuild

import (
	"io/ioutil"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DependencySpec describes one downloadable source archive.
type DependencySpec struct {
	URL     string
	Version string
	Sha256  string
	Size    int64
}

// Manifest is the fixed set of dependencies this tool knows how to build,
// loaded from deps.yml.
type Manifest struct {
	Deps map[string]DependencySpec
}

// LoadManifest reads and parses the given deps.yml file.
func LoadManifest(manifestPath string) (*Manifest, error) {
	data, err := ioutil.ReadFile(manifestPath)
	if err != nil {
		return nil, eris.Wrapf(err, "Could not open file %s.", manifestPath)
	}

	var manifest Manifest
	err = yaml.Unmarshal(data, &manifest)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse %s.", manifestPath)
	}

	for name, spec := range manifest.Deps {
		if spec.URL == "" {
			return nil, eris.Errorf("Dependency %s has no URL", name)
		}
		if spec.Version == "" {
			return nil, eris.Errorf("Dependency %s has no version", name)
		}
	}

	return &manifest, nil
}

// Lookup returns the spec for the named dependency.
func (m *Manifest) Lookup(name string) (DependencySpec, error) {
	spec, ok := m.Deps[name]
	if !ok {
		return spec, eris.Wrapf(ErrUnknownDependency, "%s", name)
	}

	return spec, nil
}

// ArchiveName returns the expected local filename of the source archive,
// derived from the download URL.
func (d DependencySpec) ArchiveName() string {
	return path.Base(d.URL)
}

// SourceDirName returns the name of the directory the archive unpacks to,
// which by convention is the archive name without its extensions.
func (d DependencySpec) SourceDirName() string {
	name := d.ArchiveName()
	for _, suffix := range []string{".tar.gz", ".tar.xz", ".tar.bz2", ".zip"} {
		if strings.HasSuffix(name, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}

	return name
}
