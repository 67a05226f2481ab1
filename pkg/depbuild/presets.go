package depbuild

import (
	"sort"

	"github.com/rotisserie/eris"
)

// PlatformPreset maps a (host platform, target triple) pair to the configure
// flags used for that platform. Compiler-specific overrides are appended
// after the generic flags, they never replace them. The order is significant
// because a later flag can disable a feature an earlier flag enabled.
type PlatformPreset struct {
	Host string
	// Target is the exact target triple this preset applies to. An empty
	// target matches every triple on the host, which is only used for
	// darwin where the flags don't depend on the triple.
	Target string
	Flags  []string
	// CompilerFlags is keyed by compiler id and appended after Flags.
	CompilerFlags map[string][]string
}

var presets = []PlatformPreset{
	{
		Host:   "linux64",
		Target: "x86_64-unknown-linux-gnu",
		Flags:  []string{"--host=x86_64-unknown-linux-gnu", "--with-openssldir=/etc/ssl"},
		CompilerFlags: map[string][]string{
			// musl-clang doesn't provide the memory protection hooks the
			// secure heap needs for key material, so it has to be turned
			// off. Upstream doesn't support anything better on a static
			// musl toolchain.
			"musl-clang": {"--disable-asm", "--disable-secure-memory"},
		},
	},
	{
		Host:   "linux64",
		Target: "x86_64-unknown-linux-musl",
		Flags:  []string{"--host=x86_64-unknown-linux-musl", "--with-openssldir=/etc/ssl"},
		CompilerFlags: map[string][]string{
			"musl-clang": {"--disable-asm", "--disable-secure-memory"},
		},
	},
	{
		// Darwin uses the same flags no matter which compiler drives the
		// build.
		Host:  "macos",
		Flags: []string{"--with-openssldir=/private/etc/ssl"},
	},
}

// SelectPreset returns the configure flags for the given host platform,
// target triple and compiler id. An exact (host, target) entry wins over a
// host-wide entry; the two are never combined. The returned slice is a copy,
// callers can append to it.
func SelectPreset(host, target, compiler string) ([]string, error) {
	var match *PlatformPreset
	for idx, preset := range presets {
		if preset.Host != host {
			continue
		}

		if preset.Target == target {
			match = &presets[idx]
			break
		}

		if preset.Target == "" && match == nil {
			match = &presets[idx]
		}
	}

	if match == nil {
		return nil, eris.Wrapf(ErrUnsupportedTarget, "%s on host %s", target, host)
	}

	flags := make([]string, 0, len(match.Flags))
	flags = append(flags, match.Flags...)
	flags = append(flags, match.CompilerFlags[compiler]...)
	return flags, nil
}

// SupportedTargets lists every (host, target) combination that has a preset,
// sorted for stable output. Host-wide entries are reported with a "*" target.
func SupportedTargets() []string {
	result := make([]string, 0, len(presets))
	for _, preset := range presets {
		target := preset.Target
		if target == "" {
			target = "*"
		}

		result = append(result, preset.Host+"/"+target)
	}

	sort.Strings(result)
	return result
}

// PresetCompilers returns the compiler ids that have overrides for the given
// preset, sorted.
func (p PlatformPreset) PresetCompilers() []string {
	result := make([]string, 0, len(p.CompilerFlags))
	for name := range p.CompilerFlags {
		result = append(result, name)
	}

	sort.Strings(result)
	return result
}

// Presets returns a copy of the preset table.
func Presets() []PlatformPreset {
	result := make([]PlatformPreset, len(presets))
	copy(result, presets)
	return result
}
