// Package buildinfo contains build information.
//
// The development suffix of the version can be set during compilation by
// passing -ldflags "-X src.adam.sh/pkg/buildinfo.VCSOverride=value" to
// "go build".
package buildinfo

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"src.adam.sh/pkg/prog"
)

// VersionBase is the version of the next release.
const VersionBase = "0.3.0"

// VCSOverride, if not empty, is used as the VCS part of the development
// version, in the form of timestamp-revision.
var VCSOverride string

// Type contains all the build information fields.
type Type struct {
	Version   string `yaml:"version"`
	GoVersion string `yaml:"goversion"`
}

// Value contains all the build information.
var Value = Type{
	Version:   devVersion(VersionBase, VCSOverride, debug.ReadBuildInfo),
	GoVersion: runtime.Version(),
}

func devVersion(next, vcsOverride string, readBuildInfo func() (*debug.BuildInfo, bool)) string {
	if vcsOverride != "" {
		return next + "-dev.0." + vcsOverride
	}
	fallback := next + "-dev.unknown"
	bi, ok := readBuildInfo()
	if !ok {
		return fallback
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return strings.TrimPrefix(v, "v")
	}
	var revision, timestamp string
	modified := false
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			timestamp = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fallback
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := next + "-dev.0." + t.UTC().Format("20060102150405") + "-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}

// Program is the buildinfo subprogram.
type Program struct{}

// Run runs the program.
func (Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	switch {
	case f.BuildInfo:
		if f.YAML {
			return writeYAML(fds[1], Value)
		}
		fmt.Fprintln(fds[1], "Version:", Value.Version)
		fmt.Fprintln(fds[1], "Go version:", Value.GoVersion)
	case f.Version:
		if f.YAML {
			return writeYAML(fds[1], Value.Version)
		}
		fmt.Fprintln(fds[1], Value.Version)
	default:
		return prog.ErrNotSuitable
	}
	return nil
}

func writeYAML(f *os.File, v any) error {
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
