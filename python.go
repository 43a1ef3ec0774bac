package pyextci

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Introspection one-liners run against the host interpreter. sysconfig is
// available on every supported interpreter, 2.7 included.
const (
	libDirQuery  = `import sysconfig; print(sysconfig.get_config_var('LIBDIR') or '')`
	versionQuery = `import platform; print(platform.python_version())`
)

// Interpreter describes a host Python installation selected for a matrix row.
type Interpreter struct {
	// Version is the requested version, e.g. "3.11" or "2.7".
	Version string
	// Path is the resolved interpreter executable.
	Path string
	// FullVersion is the version string the interpreter reports, e.g. "3.11.9".
	FullVersion string
	// LibDir is the interpreter's shared-library directory (PYTHON_LIB).
	// Populated by DiscoverLibDir.
	LibDir string
}

// FindInterpreter locates the interpreter binary for the requested version.
//
// Candidates are tried in order of specificity: pythonX.Y, pythonX, python.
// A candidate only matches if the version it reports has the requested
// version as a prefix, so a bare `python` pointing at 3.12 does not satisfy
// a request for 3.11. An empty version accepts whatever `python` resolves to.
func FindInterpreter(ctx context.Context, version string) (*Interpreter, error) {
	var candidates []string
	if version != "" {
		candidates = append(candidates, "python"+version)
		if major, _, found := strings.Cut(version, "."); found {
			candidates = append(candidates, "python"+major)
		}
	}
	candidates = append(candidates, "python")

	var lastErr error
	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate)
		if err != nil {
			lastErr = err
			continue
		}

		full, err := interpreterQuery(ctx, path, versionQuery)
		if err != nil {
			lastErr = err
			continue
		}

		if version != "" && !versionMatches(full, version) {
			lastErr = fmt.Errorf("%s reports version %s, want %s", path, full, version)
			continue
		}

		return &Interpreter{
			Version:     version,
			Path:        path,
			FullVersion: full,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no interpreter found for version %q: %w", version, lastErr)
	}
	return nil, fmt.Errorf("no interpreter found for version %q", version)
}

// DiscoverLibDir introspects the interpreter's build configuration for its
// shared-library directory. The result must be a non-empty, existing
// directory; anything else is fatal to the run.
func (i *Interpreter) DiscoverLibDir(ctx context.Context) error {
	dir, err := interpreterQuery(ctx, i.Path, libDirQuery)
	if err != nil {
		return fmt.Errorf("library directory discovery failed for %s: %w", i.Path, err)
	}

	if dir == "" {
		return fmt.Errorf("interpreter %s reported no library directory", i.Path)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("library directory %s reported by %s: %w", dir, i.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library directory %s reported by %s is not a directory", dir, i.Path)
	}

	i.LibDir = dir
	return nil
}

// ExportTo registers the interpreter's library directory on the environment:
// PYTHON_LIB is derived, LIBRARY_PATH and LD_LIBRARY_PATH are appended so a
// native extension built against this interpreter locates its symbols at
// link time and at load time.
func (i *Interpreter) ExportTo(env *Environment) {
	env.Set("PYTHON_LIB", i.LibDir)
	env.AppendPath("LIBRARY_PATH", i.LibDir)
	env.AppendPath("LD_LIBRARY_PATH", i.LibDir)
}

// interpreterQuery runs a python -c one-liner and returns its trimmed stdout.
func interpreterQuery(ctx context.Context, path, query string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "-c", query)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// versionMatches reports whether a full version like "3.11.9" satisfies a
// requested version like "3.11" or "3".
func versionMatches(full, requested string) bool {
	if full == requested {
		return true
	}
	return strings.HasPrefix(full, requested+".")
}
