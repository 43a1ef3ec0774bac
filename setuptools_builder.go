package pyextci

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// SetuptoolsBuilder drives extensions that ship a setup.py script.
//
// The build runs `python setup.py build_ext --inplace` with the matrix row's
// interpreter, so the compiled module lands next to the package sources where
// the test suite can import it.
type SetuptoolsBuilder struct{}

// Name returns the builder name
func (b *SetuptoolsBuilder) Name() string {
	return "Setuptools"
}

// CanBuild checks if this builder can handle the entry file
func (b *SetuptoolsBuilder) CanBuild(entryFile string) bool {
	return MatchesPattern(filepath.Base(entryFile), `^setup\.py$`)
}

// Build compiles the extension using setuptools
func (b *SetuptoolsBuilder) Build(ctx context.Context, config *BuildConfig, entryFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, entryFile, CommonBuildSteps{
		ConfigureFunc: b.checkInterpreter,
		BuildFunc:     b.runSetupPy,
		FindFunc:      b.findBuiltModules,
	})
}

// Clean removes build artifacts
func (b *SetuptoolsBuilder) Clean(ctx context.Context, config *BuildConfig, entryFile string) error {
	entryPath := filepath.Join(config.ProjectDir, entryFile)
	entryDir := filepath.Dir(entryPath)

	cmd := exec.CommandContext(ctx, b.pythonExecutable(config), "setup.py", "clean", "--all")
	cmd.Dir = entryDir

	// Ignore errors - clean may not be necessary
	_ = cmd.Run()
	return nil
}

// checkInterpreter verifies an interpreter is configured before building
func (b *SetuptoolsBuilder) checkInterpreter(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	python := b.pythonExecutable(config)
	if _, err := exec.LookPath(python); err != nil {
		return fmt.Errorf("interpreter %s not found: %w", python, err)
	}

	if config.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("Using interpreter: %s", python))
	}
	return nil
}

// runSetupPy executes setup.py build_ext with the row's interpreter
func (b *SetuptoolsBuilder) runSetupPy(ctx context.Context, config *BuildConfig, entryDir string, result *BuildResult) error {
	args := []string{"setup.py", "build_ext", "--inplace"}
	args = append(args, config.BuildArgs...)

	cmd := exec.CommandContext(ctx, b.pythonExecutable(config), args...)
	cmd.Dir = entryDir

	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", b.pythonExecutable(config), strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", entryDir))
	}

	if err != nil {
		return BuildError("Setuptools", result.Output, err)
	}

	return nil
}

// findBuiltModules locates compiled extension modules produced in place
func (b *SetuptoolsBuilder) findBuiltModules(entryDir string) ([]string, error) {
	var modules []string

	patterns := []string{"*.so", "*.pyd", "*.dylib"}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(entryDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, entryDir, err)
		}

		for _, match := range matches {
			relPath, err := filepath.Rel(entryDir, match)
			if err == nil {
				modules = append(modules, relPath)
			}
		}
	}

	return modules, nil
}

// pythonExecutable returns the interpreter configured for this build
func (b *SetuptoolsBuilder) pythonExecutable(config *BuildConfig) string {
	if config.PythonPath != "" {
		return config.PythonPath
	}
	if config.PythonVersion != "" {
		return "python" + config.PythonVersion
	}
	return "python"
}
