package pyextci

import "context"

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the build process (stdout/stderr)
//   - Modules list of compiled extension modules (.so/.pyd/.dylib)
//   - Error information if the build failed
type BuildResult struct {
	Success bool     // True if build completed successfully
	Output  []string // Lines of output from the build process
	Modules []string // Paths to built extension modules
	Error   error    // Error if build failed, nil otherwise
}

// BuildConfig contains configuration for the build process.
//
// Source paths define where files are located:
//   - ProjectDir: Root directory of the extension project
//   - DestPath: Destination directory for compiled extension modules
//   - PackageDir: Optional Python package directory the test suite imports from
//
// Build configuration:
//   - BuildArgs: Additional arguments passed to the build system
//   - Env: Environment variables set during build and test
//   - Parallel: Number of parallel jobs for make -j (0 = default)
//
// Python environment:
//   - PythonVersion: Requested interpreter version (e.g. "3.11", "2.7")
//   - PythonPath: Path to the interpreter executable
//
// Command surface:
//   - BuildTarget: make target that compiles native code (default "build")
//   - TestTarget: make target that runs the interpreted test suite
//     (default "test")
type BuildConfig struct {
	// Source paths
	ProjectDir string // Root directory of the extension project
	DestPath   string // Destination for compiled extension modules
	PackageDir string // Optional package directory for module installation

	// Build arguments
	BuildArgs []string          // Additional build arguments
	Env       map[string]string // Environment variables for build and test

	// Python configuration
	PythonVersion string // Requested interpreter version (3.11, 2.7, etc.)
	PythonPath    string // Path to the interpreter executable

	// Command surface
	BuildTarget string // Target compiling native code
	TestTarget  string // Target running the interpreted test suite

	// Build options
	Verbose    bool // Enable verbose output
	CleanFirst bool // Run clean before build
	Parallel   int  // Number of parallel jobs (for make -j)

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build
}

// buildTarget returns the configured build target or the default.
func (c *BuildConfig) buildTarget() string {
	if c.BuildTarget != "" {
		return c.BuildTarget
	}
	return "build"
}

// testTarget returns the configured test target or the default.
func (c *BuildConfig) testTarget() string {
	if c.TestTarget != "" {
		return c.TestTarget
	}
	return "test"
}

// CommonBuildSteps defines the standard 3-step build pattern used by multiple builders.
//
// The build systems driven here follow a similar pattern:
//  1. Configure: Prepare the build (select tools, verify inputs)
//  2. Build: Compile the extension and run its test target
//  3. Find: Locate the compiled extension modules
//
// This structure allows builders to implement this pattern consistently
// while customizing each step's behavior.
//
// Example usage in a builder:
//
//	return runCommonBuild(ctx, config, entryFile, CommonBuildSteps{
//	    ConfigureFunc: b.checkInputs,
//	    BuildFunc:     b.runCompilation,
//	    FindFunc:      b.locateModules,
//	})
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build environment
	ConfigureFunc func(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error

	// BuildFunc compiles the extension (e.g. run make, cargo build)
	BuildFunc func(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error

	// FindFunc locates the compiled extension modules after build completes
	FindFunc func(entryDir string) ([]string, error)
}
