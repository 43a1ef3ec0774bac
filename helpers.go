package pyextci

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// This is a helper function for builder implementations to determine if they
// can handle a given entry file based on filename patterns.
//
// # Parameters
//
//   - filename: The file to check (typically just the base name)
//   - patterns: One or more regex patterns to match against
//
// # Returns
//
// Returns true if the filename matches any pattern, false otherwise.
// If a pattern is invalid regex, it is silently skipped.
//
// # Example
//
//	// Check if file is a Cargo manifest
//	if MatchesPattern(filename, `Cargo\.toml$`) {
//	    // Handle Cargo.toml
//	}
//
//	// Check for a setup script
//	if MatchesPattern(filename, `^setup\.py$`, `^setup\.cfg$`) {
//	    // Handle setuptools projects
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive check for file extensions.
// Useful for checking compiled extension modules (.so, .pyd, .dylib).
//
// # Example
//
//	// Check for compiled extension modules
//	if MatchesExtension(filename, ".so", ".pyd", ".dylib") {
//	    // This is a compiled extension module
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// This helper formats build errors consistently across all builders,
// including the build output for debugging.
//
// # Parameters
//
//   - builder: Name of the builder or step (e.g. "Make", "Cargo", "rustup-init")
//   - output: Lines of output from the failed process
//   - err: The underlying error (can be nil)
//
// # Format
//
// With error and output:
//
//	Cargo build failed: exit status 101
//
//	Build output:
//	error[E0433]: failed to resolve: use of undeclared crate
//
// With error but no output:
//
//	Cargo build failed: exit status 101
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}
