package pyextci

import "context"

// Builder defines the interface that all extension builders must implement.
//
// Each builder is responsible for a specific build system (Makefile, Cargo,
// setuptools) and must implement these four methods to integrate with the
// BuilderFactory.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this to find the right builder for an entry file
//  2. Build() - Factory calls this to compile the extension and run its tests
//  3. Clean() - Optional cleanup of build artifacts
//
// # Example Implementation
//
//	type MyBuilder struct{}
//
//	func (b *MyBuilder) Name() string {
//	    return "MyBuildSystem"
//	}
//
//	func (b *MyBuilder) CanBuild(entryFile string) bool {
//	    return strings.HasSuffix(entryFile, "mybuild.conf")
//	}
//
//	func (b *MyBuilder) Build(ctx context.Context, config *BuildConfig, entryFile string) (*BuildResult, error) {
//	    result := &BuildResult{Success: true}
//	    // ... build logic ...
//	    return result, nil
//	}
//
//	func (b *MyBuilder) Clean(ctx context.Context, config *BuildConfig, entryFile string) error {
//	    return nil
//	}
//
// # Thread Safety
//
// Builder implementations should be stateless and thread-safe.
// The same builder instance may be used to build multiple extensions concurrently.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	// Examples: "Makefile", "Cargo", "Setuptools"
	Name() string

	// CanBuild checks if this builder can handle the given entry file.
	//
	// The entryFile parameter is typically just the filename (e.g. "Makefile")
	// or a relative path (e.g. "ext/rustmodule/Cargo.toml").
	//
	// Returns true if this builder should be used for the file.
	CanBuild(entryFile string) bool

	// Build compiles the extension and returns the result.
	//
	// This method should:
	//  1. Prepare the build (verify tools, inputs)
	//  2. Compile the extension and exercise its test entry point
	//  3. Locate the compiled extension modules
	//
	// The entryFile path is relative to config.ProjectDir.
	//
	// Returns:
	//   - BuildResult with Success=true and Modules list on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, config *BuildConfig, entryFile string) (*BuildResult, error)

	// Clean removes build artifacts.
	//
	// This is optional - some builders may not support cleaning.
	// Returns nil if cleaning is not supported or completes successfully.
	//
	// The entryFile path is relative to config.ProjectDir.
	Clean(ctx context.Context, config *BuildConfig, entryFile string) error
}
