package context

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Semantic string
	Commit   string
	Dirty    bool
}

// String returns a human readable version, e.g. "v1.2.3 (abc1234-dirty)".
func (v *VersionInfo) String() string {
	if v.Commit == "" {
		return v.Semantic
	}

	commit := v.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if v.Dirty {
		commit += "-dirty"
	}

	return fmt.Sprintf("%s (%s)", v.Semantic, commit)
}

// GetVersion reads the version information embedded in the binary by the Go
// toolchain.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build information")
	}

	vi := &VersionInfo{Semantic: bi.Main.Version}
	if vi.Semantic == "" || vi.Semantic == "(devel)" {
		vi.Semantic = "v0.0.0-dev"
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value
		case "vcs.modified":
			vi.Dirty = strings.EqualFold(s.Value, "true")
		}
	}

	return vi, nil
}
