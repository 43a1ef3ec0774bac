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

// CargoBuilder handles Rust-based extension builds using Cargo.
//
// The extension crate is compiled as a cdylib and the produced library is
// renamed to the import name Python expects (no lib prefix, .so or .pyd
// suffix). The interpreter selected for the matrix row is exposed to the
// binding crates through PYTHON_SYS_EXECUTABLE.
type CargoBuilder struct{}

// Name returns the builder name
func (b *CargoBuilder) Name() string {
	return "Cargo"
}

// RequiredTools returns the tools needed for Cargo builds
func (b *CargoBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "cargo", Purpose: "Rust build tool and package manager"},
		{Name: "rustc", Purpose: "Rust compiler"},
	}
}

// CheckTools verifies that the Rust toolchain is available
func (b *CargoBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the entry file
func (b *CargoBuilder) CanBuild(entryFile string) bool {
	return MatchesPattern(entryFile, `Cargo\.toml$`)
}

// Build compiles the extension using cargo
func (b *CargoBuilder) Build(ctx context.Context, config *BuildConfig, entryFile string) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	entryPath := filepath.Join(config.ProjectDir, entryFile)
	entryDir := filepath.Dir(entryPath)

	// Step 1: Run cargo to build the Rust extension
	if err := b.runCargo(ctx, config, entryDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Find and rename built libraries to Python's expected format
	if err := b.processBuiltModules(ctx, config, entryDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Install modules where the test suite imports from
	installed, err := finalizeExtensionModules(config, entryFile, entryDir, result.Modules)
	if err != nil {
		result.Error = err
		return result, err
	}
	result.Modules = installed

	result.Success = true
	return result, nil
}

// Clean removes build artifacts
func (b *CargoBuilder) Clean(ctx context.Context, config *BuildConfig, entryFile string) error {
	entryPath := filepath.Join(config.ProjectDir, entryFile)
	entryDir := filepath.Dir(entryPath)

	cmd := exec.CommandContext(ctx, b.getCargoPath(), "clean")
	cmd.Dir = entryDir

	return cmd.Run()
}

// runCargo executes cargo to build the Rust extension
func (b *CargoBuilder) runCargo(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	cargoPath := b.getCargoPath()

	// Build cargo arguments
	args := []string{"rustc", "--release", "--crate-type", "cdylib"}

	// Add target if specified
	if target := os.Getenv("CARGO_BUILD_TARGET"); target != "" {
		args = append(args, "--target", target)
	}

	// Use locked dependencies if Cargo.lock exists
	lockPath := filepath.Join(entryDir, "Cargo.lock")
	if _, err := os.Stat(lockPath); err == nil {
		args = append(args, "--locked")
	}

	// Add parallel jobs if specified
	if config.Parallel > 0 {
		args = append(args, "--jobs", fmt.Sprintf("%d", config.Parallel))
	}

	// Clean first if requested
	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, cargoPath, "clean")
		cleanCmd.Dir = entryDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	// Add any custom build args
	args = append(args, config.BuildArgs...)

	// Add rustc-specific arguments for Python integration
	args = append(args, "--")
	args = append(args, b.getRustcArgs(config)...)

	cmd := exec.CommandContext(ctx, cargoPath, args...)
	cmd.Dir = entryDir

	// Set environment variables for Rust/Python integration
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = append(cmd.Env, b.getPythonEnv(config)...)

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", cargoPath, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", entryDir))
	}

	if err != nil {
		return BuildError("Cargo", result.Output, err)
	}

	return nil
}

// processBuiltModules finds built Rust libraries and renames them for Python
func (b *CargoBuilder) processBuiltModules(_ context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	// Find the target directory
	targetDir := filepath.Join(entryDir, "target")
	if target := os.Getenv("CARGO_BUILD_TARGET"); target != "" {
		targetDir = filepath.Join(targetDir, target)
	}
	targetDir = filepath.Join(targetDir, "release")

	// Find built dynamic libraries
	builtLibs, err := b.findCargoOutputs(targetDir)
	if err != nil {
		return BuildError("Cargo", result.Output, fmt.Errorf("failed to find cargo outputs: %v", err))
	}

	if len(builtLibs) == 0 {
		return BuildError("Cargo", result.Output, fmt.Errorf("no dynamic libraries found in %s", targetDir))
	}

	// Process each built library
	for _, lib := range builtLibs {
		// Convert Rust library name to Python module name
		moduleName := b.getModuleName(lib)
		modulePath := filepath.Join(entryDir, moduleName)

		// Copy the library to the expected location
		if err := copyFile(lib, modulePath); err != nil {
			return BuildError("Cargo", result.Output, fmt.Errorf("failed to copy %s to %s: %v", lib, modulePath, err))
		}

		// Add to results
		relPath, _ := filepath.Rel(entryDir, modulePath)
		result.Modules = append(result.Modules, relPath)

		if config.Verbose {
			result.Output = append(result.Output, fmt.Sprintf("Copied %s -> %s", lib, modulePath))
		}
	}

	return nil
}

// findCargoOutputs locates built dynamic libraries
func (b *CargoBuilder) findCargoOutputs(targetDir string) ([]string, error) {
	var outputs []string

	// Platform-specific library patterns
	var patterns []string
	switch runtime.GOOS {
	case platformWindows:
		patterns = []string{"*.dll"}
	case platformDarwin:
		patterns = []string{"*.dylib", "lib*.dylib"}
	default:
		patterns = []string{"*.so", "lib*.so"}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(targetDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %v", pattern, err)
		}
		outputs = append(outputs, matches...)
	}

	return outputs, nil
}

// getModuleName converts a Rust library name to the Python import name.
//
// Python imports the module by file name, so liblinecount.so must become
// linecount.so (or linecount.pyd on Windows).
func (b *CargoBuilder) getModuleName(libPath string) string {
	filename := filepath.Base(libPath)
	ext := filepath.Ext(filename)

	// Remove lib prefix if present
	filename = strings.TrimPrefix(filename, "lib")

	// Remove original extension and add Python's expected extension
	name := strings.TrimSuffix(filename, ext)

	switch runtime.GOOS {
	case platformWindows:
		return name + ".pyd"
	default:
		return name + ".so"
	}
}

// getRustcArgs returns rustc arguments for Python integration
func (b *CargoBuilder) getRustcArgs(_ *BuildConfig) []string {
	var args []string

	// Platform-specific linking arguments
	switch runtime.GOOS {
	case platformDarwin:
		// CPython symbols are resolved at import time on macOS
		args = append(args, "-C", "link-arg=-Wl,-undefined,dynamic_lookup")
	case platformWindows:
		args = append(args, "-C", "link-arg=-Wl,--dynamicbase", "-C", "link-arg=-Wl,--disable-auto-image-base", "-C", "link-arg=-static-libgcc")
	}

	return args
}

// getPythonEnv returns Python-specific environment variables for Cargo
func (b *CargoBuilder) getPythonEnv(config *BuildConfig) []string {
	var env []string

	// The *-sys binding crates consult these to pick the interpreter
	if config.PythonPath != "" {
		env = append(env, fmt.Sprintf("PYTHON_SYS_EXECUTABLE=%s", config.PythonPath))
		env = append(env, fmt.Sprintf("PYTHON=%s", config.PythonPath))
	}
	if config.PythonVersion != "" {
		env = append(env, fmt.Sprintf("PYTHON_VERSION=%s", config.PythonVersion))
	}

	return env
}

// getCargoPath returns the path to the cargo executable
func (b *CargoBuilder) getCargoPath() string {
	if cargoPath := os.Getenv("CARGO"); cargoPath != "" {
		return cargoPath
	}
	return "cargo"
}
