package pyextci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunConfig configures a full CI run: the toolchain to pin, the interpreter
// versions to test against, and the extension build to drive.
type RunConfig struct {
	// Channel is the Rust release channel to install (RUST_VERSION).
	// Empty falls back to the RUST_VERSION environment variable, then "stable".
	Channel string

	// Prefix is the toolchain install prefix. Required.
	Prefix string

	// PythonVersions are the interpreter versions forming the matrix,
	// e.g. {"2.7", "3.11"}. Each version is one independent row.
	PythonVersions []string

	// Extensions are the build entry files relative to Build.ProjectDir,
	// e.g. {"Makefile"}. Empty means auto-detect.
	Extensions []string

	// Build is the per-row build configuration. PythonVersion, PythonPath
	// and the pipeline-derived environment variables are filled in per row.
	Build BuildConfig

	// Parallelism bounds concurrent matrix rows. Values below 1 mean
	// strictly sequential execution. Rows share Build.ProjectDir, so raise
	// this only when the build system tolerates concurrent invocations.
	Parallelism int

	// Logf receives progress lines. Nil disables progress reporting.
	Logf func(format string, args ...any)
}

// RunResult captures the outcome of one matrix row.
type RunResult struct {
	// PythonVersion is the requested interpreter version for this row.
	PythonVersion string
	// Interpreter is the resolved interpreter, nil if discovery failed.
	Interpreter *Interpreter
	// ToolchainVersion is the version string the installed rustc reported.
	ToolchainVersion string
	// Results holds one entry per extension processed.
	Results []*BuildResult
	// Err is the first fatal error of the row, nil if the row passed.
	Err error
	// Duration is the wall-clock time of the row.
	Duration time.Duration
}

// Passed reports whether every step and every extension of the row succeeded.
func (r *RunResult) Passed() bool {
	if r.Err != nil {
		return false
	}
	for _, result := range r.Results {
		if !result.Success {
			return false
		}
	}
	return true
}

// Runner executes the pipeline for single matrix rows.
//
// Each row runs strictly sequential steps: toolchain bootstrap, environment
// assembly, interpreter discovery, then the build and test command surface.
// Any step failure aborts the remainder of the row.
type Runner struct {
	Bootstrap *Bootstrapper
	Factory   *BuilderFactory

	// Logf receives progress lines. Nil disables progress reporting.
	Logf func(format string, args ...any)
}

// NewRunner creates a Runner for the given configuration with all standard
// builders registered.
func NewRunner(cfg *RunConfig) *Runner {
	return &Runner{
		Bootstrap: &Bootstrapper{
			Channel: cfg.Channel,
			Prefix:  cfg.Prefix,
			Logf:    cfg.Logf,
		},
		Factory: NewBuilderFactory(),
		Logf:    cfg.Logf,
	}
}

// Run executes one matrix row for the given interpreter version.
//
// The returned RunResult always carries the row's identity; inspect Err and
// Results for the outcome. Errors are not retried, matching the contract
// that any failure is fatal to the row.
func (r *Runner) Run(ctx context.Context, cfg *RunConfig, pythonVersion string) *RunResult {
	row := &RunResult{PythonVersion: pythonVersion}
	start := time.Now()
	defer func() { row.Duration = time.Since(start) }()

	// Step 1: toolchain bootstrap
	if err := r.Bootstrap.Install(ctx); err != nil {
		row.Err = err
		return row
	}

	if version, err := r.Bootstrap.RustcVersion(ctx); err == nil {
		row.ToolchainVersion = version
	}

	// Step 2: environment assembly for the pinned toolchain
	env := NewEnvironment()
	if err := r.Bootstrap.ExportTo(ctx, env); err != nil {
		row.Err = err
		return row
	}

	// Step 3: interpreter discovery
	interp, err := FindInterpreter(ctx, pythonVersion)
	if err != nil {
		row.Err = err
		return row
	}
	if err := interp.DiscoverLibDir(ctx); err != nil {
		row.Err = err
		return row
	}
	interp.ExportTo(env)
	row.Interpreter = interp

	r.logf("python %s: %s (PYTHON_LIB=%s)", pythonVersion, interp.Path, interp.LibDir)

	// Step 4 and 5: build and test through the command surface
	build := cfg.Build
	build.PythonVersion = pythonVersion
	build.PythonPath = interp.Path
	build.Env = mergeEnv(build.Env, env.Overrides())

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions, err = DetectExtensions(build.ProjectDir)
		if err != nil {
			row.Err = err
			return row
		}
	}

	results, err := r.Factory.BuildAllExtensions(ctx, &build, extensions)
	row.Results = results
	row.Err = err

	return row
}

// DetectExtensions looks for a known build entry file at the project root.
//
// Candidates, in priority order: Makefile, GNUmakefile, Cargo.toml, setup.py.
func DetectExtensions(projectDir string) ([]string, error) {
	candidates := []string{"Makefile", "GNUmakefile", "Cargo.toml", "setup.py"}

	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(projectDir, candidate)); err == nil {
			return []string{candidate}, nil
		}
	}

	return nil, fmt.Errorf("no build entry file found in %s", projectDir)
}

// mergeEnv layers derived pipeline variables over user-provided ones.
// Derived values win: the whole point of the pipeline is that PATH and the
// library search paths refer to the pinned toolchain and interpreter.
func mergeEnv(user, derived map[string]string) map[string]string {
	merged := make(map[string]string, len(user)+len(derived))
	for key, value := range user {
		merged[key] = value
	}
	for key, value := range derived {
		merged[key] = value
	}
	return merged
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
