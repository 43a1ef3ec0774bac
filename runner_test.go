package pyextci

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectExtensions(t *testing.T) {
	testCases := []struct {
		name     string
		files    []string
		expected []string
	}{
		{name: "Makefile", files: []string{"Makefile"}, expected: []string{"Makefile"}},
		{name: "GNUmakefile", files: []string{"GNUmakefile"}, expected: []string{"GNUmakefile"}},
		{name: "Cargo", files: []string{"Cargo.toml"}, expected: []string{"Cargo.toml"}},
		{name: "Setuptools", files: []string{"setup.py"}, expected: []string{"setup.py"}},
		{name: "MakefileWins", files: []string{"Cargo.toml", "Makefile"}, expected: []string{"Makefile"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, file := range tc.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, file), nil, 0o644))
			}

			detected, err := DetectExtensions(dir)
			require.NoError(t, err)
			require.Equal(t, tc.expected, detected)
		})
	}
}

func TestDetectExtensionsEmptyProject(t *testing.T) {
	_, err := DetectExtensions(t.TempDir())
	require.Error(t, err)
}

func TestMergeEnvDerivedWins(t *testing.T) {
	user := map[string]string{"PATH": "/custom/bin", "CFLAGS": "-O2"}
	derived := map[string]string{"PATH": "/toolchain/bin", "PYTHON_LIB": "/usr/lib"}

	merged := mergeEnv(user, derived)

	require.Equal(t, "/toolchain/bin", merged["PATH"])
	require.Equal(t, "-O2", merged["CFLAGS"])
	require.Equal(t, "/usr/lib", merged["PYTHON_LIB"])
}

func TestRunResultPassed(t *testing.T) {
	row := &RunResult{}
	require.True(t, row.Passed())

	row.Results = []*BuildResult{{Success: true}}
	require.True(t, row.Passed())

	row.Results = append(row.Results, &BuildResult{Success: false})
	require.False(t, row.Passed())

	row = &RunResult{Err: errors.New("bootstrap failed")}
	require.False(t, row.Passed())
}

// TestRunnerPipeline exercises a full matrix row against stub tools: a fake
// installed toolchain, a fake interpreter, and a Makefile whose build target
// produces an extension module.
func TestRunnerPipeline(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub pipeline requires a POSIX shell")
	}
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not available")
	}

	prefix := t.TempDir()
	stubToolchain(t, prefix, "rustc 1.82.0-nightly (stub 2026-08-01)")

	pythonDir := stubInterpreter(t, "python9.9")
	libDir := t.TempDir()
	t.Setenv("PYEXTCI_TEST_LIBDIR", libDir)
	t.Setenv("PATH", pythonDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	projectDir := t.TempDir()
	makefile := "build:\n\ttouch extension.so\n\ntest:\n\ttest -n \"$$PYTHON_LIB\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "Makefile"), []byte(makefile), 0o644))

	cfg := &RunConfig{
		Channel: "nightly",
		Prefix:  prefix,
		Build: BuildConfig{
			ProjectDir:    projectDir,
			StopOnFailure: true,
		},
	}

	runner := NewRunner(cfg)
	row := runner.Run(context.Background(), cfg, "9.9")

	require.NoError(t, row.Err)
	require.True(t, row.Passed())
	require.Contains(t, row.ToolchainVersion, "nightly")
	require.NotNil(t, row.Interpreter)
	require.Equal(t, libDir, row.Interpreter.LibDir)
	require.Len(t, row.Results, 1)
	require.Equal(t, []string{"extension.so"}, row.Results[0].Modules)
}

// TestRunnerPipelineTestFailure checks the pass/fail contract: the combined
// command's exit status is the row's signal, so a failing test target fails
// the row even when compilation succeeded.
func TestRunnerPipelineTestFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub pipeline requires a POSIX shell")
	}
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not available")
	}

	prefix := t.TempDir()
	stubToolchain(t, prefix, "rustc 1.82.0-nightly (stub 2026-08-01)")

	pythonDir := stubInterpreter(t, "python9.9")
	t.Setenv("PYEXTCI_TEST_LIBDIR", t.TempDir())
	t.Setenv("PATH", pythonDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	projectDir := t.TempDir()
	makefile := "build:\n\ttouch extension.so\n\ntest:\n\texit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "Makefile"), []byte(makefile), 0o644))

	cfg := &RunConfig{
		Channel: "nightly",
		Prefix:  prefix,
		Build: BuildConfig{
			ProjectDir:    projectDir,
			StopOnFailure: true,
		},
	}

	runner := NewRunner(cfg)
	row := runner.Run(context.Background(), cfg, "9.9")

	require.Error(t, row.Err)
	require.False(t, row.Passed())
}

func TestRunnerBootstrapFailureAbortsRow(t *testing.T) {
	cfg := &RunConfig{
		// No toolchain at the prefix and an unreachable dist URL: the
		// bootstrap step fails and nothing further runs.
		Channel: "nightly",
		Prefix:  t.TempDir(),
	}

	runner := NewRunner(cfg)
	runner.Bootstrap.DistURL = "http://127.0.0.1:0/rustup-init"

	row := runner.Run(context.Background(), cfg, "3.11")

	require.Error(t, row.Err)
	require.False(t, row.Passed())
	require.Nil(t, row.Interpreter)
	require.Empty(t, row.Results)
}
