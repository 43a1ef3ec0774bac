package pyextci

import (
	"context"
	"path/filepath"
)

// runCommonBuild executes the standard 3-step build process.
//
// The build systems driven here follow a similar pattern:
//  1. Configure: Prepare the build (verify tools, inputs)
//  2. Build: Compile the extension using the build system
//  3. Find: Locate the compiled extension modules (.so, .pyd, .dylib)
//
// This function provides a consistent way to execute this pattern,
// allowing builders to focus on implementing their specific logic
// for each step.
//
// # Process Flow
//
//  1. Create empty BuildResult
//  2. Calculate entry directory from entryFile path
//  3. Call ConfigureFunc to prepare the build
//  4. Call BuildFunc to compile the extension
//  5. Call FindFunc to locate compiled modules
//  6. Return BuildResult with Success=true
//
// If any step fails, processing stops and the error is returned
// with Success=false. The BuildResult.Output field is populated by
// the step functions as they execute.
func runCommonBuild(ctx context.Context, config *BuildConfig, entryFile string, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	// Calculate entry directory
	entryPath := filepath.Join(config.ProjectDir, entryFile)
	entryDir := filepath.Dir(entryPath)

	// Step 1: Configure/prepare the build
	if err := steps.ConfigureFunc(ctx, config, entryDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Build/compile the extension
	if err := steps.BuildFunc(ctx, config, entryDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Find the built extension modules
	modules, err := steps.FindFunc(entryDir)
	if err != nil {
		result.Error = err
		return result, err
	}

	installed, err := finalizeExtensionModules(config, entryFile, entryDir, modules)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Modules = installed
	result.Success = true
	return result, nil
}
