package pyextci

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform constants
const (
	platformWindows = "windows"
	platformDarwin  = "darwin"

	makeProgram  = "make"
	nmakeProgram = "nmake"
)

// MakefileBuilder drives projects that expose the combined build/test entry
// point: a Makefile with one target compiling the native extension and a
// second target running the interpreted test suite.
//
// This is the conventional layout of Rust/Python binding projects, where
// `make build` invokes cargo and `make test` runs the Python tests against
// the freshly built module. The make invocation exits zero only when both
// targets succeed, which is the pass/fail signal for the whole run.
type MakefileBuilder struct{}

// Name returns the builder name
func (b *MakefileBuilder) Name() string {
	return "Make"
}

// RequiredTools returns the tools needed for Makefile builds
func (b *MakefileBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "make",
			Alternatives: []string{"gmake", "nmake"},
			Purpose:      "Build automation tool",
		},
	}
}

// CheckTools verifies that make is available
func (b *MakefileBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the entry file
func (b *MakefileBuilder) CanBuild(entryFile string) bool {
	filename := strings.ToLower(filepath.Base(entryFile))
	// Match Makefile, makefile, GNUmakefile
	return filename == "makefile" || filename == "gnumakefile"
}

// Build compiles the extension and runs its test suite through make
func (b *MakefileBuilder) Build(ctx context.Context, config *BuildConfig, entryFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, entryFile, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runMake,
		FindFunc:      b.findBuiltModules,
	})
}

// Clean removes build artifacts
func (b *MakefileBuilder) Clean(ctx context.Context, config *BuildConfig, entryFile string) error {
	entryPath := filepath.Join(config.ProjectDir, entryFile)
	entryDir := filepath.Dir(entryPath)

	makeBin := b.getMakeProgram()
	cleanCmd := exec.CommandContext(ctx, makeBin, "clean")
	cleanCmd.Dir = entryDir

	// Ignore errors - clean target may not exist
	_ = cleanCmd.Run()
	return nil
}

// noConfigure is a no-op since Makefile projects need no configuration step
func (b *MakefileBuilder) noConfigure(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "Using existing Makefile, no configuration needed")
	}
	return nil
}

// runMake executes make with the build and test targets in one invocation.
//
// The single invocation matters: make stops at the first failing target, so
// the exit status is zero iff both native compilation and the interpreted
// test suite succeed.
func (b *MakefileBuilder) runMake(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	makeBin := b.getMakeProgram()

	args := []string{}

	// Add parallel jobs if specified
	if config.Parallel > 0 {
		args = append(args, fmt.Sprintf("-j%d", config.Parallel))
	}

	// Clean first if requested
	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, makeBin, "clean")
		cleanCmd.Dir = entryDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	args = append(args, config.BuildArgs...)
	args = append(args, config.buildTarget(), config.testTarget())

	cmd := exec.CommandContext(ctx, makeBin, args...)
	cmd.Dir = entryDir

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	// Expose the selected interpreter to the Makefile
	if config.PythonPath != "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("PYTHON=%s", config.PythonPath))
	}

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", makeBin, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", entryDir))
	}

	if err != nil {
		return BuildError("Make", result.Output, err)
	}

	return nil
}

// findBuiltModules locates the compiled extension modules
func (b *MakefileBuilder) findBuiltModules(entryDir string) ([]string, error) {
	var modules []string

	// Common extension module patterns
	patterns := []string{
		"*.so",    // Linux/Unix extension modules
		"*.dylib", // macOS dynamic libraries
		"*.pyd",   // Windows extension modules
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(entryDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, entryDir, err)
		}

		for _, match := range matches {
			// Convert to relative path
			relPath, err := filepath.Rel(entryDir, match)
			if err == nil {
				modules = append(modules, relPath)
			}
		}
	}

	return modules, nil
}

// getMakeProgram returns the appropriate make program for the platform
func (b *MakefileBuilder) getMakeProgram() string {
	// Check environment variable first
	if makeEnv := os.Getenv("MAKE"); makeEnv != "" {
		return makeEnv
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case platformWindows:
		return nmakeProgram
	default:
		return makeProgram
	}
}
