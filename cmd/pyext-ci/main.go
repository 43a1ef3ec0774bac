// Command pyext-ci builds a Rust-backed Python extension and runs its test
// suite across a matrix of interpreter versions, pinning the Rust toolchain
// to a named release channel.
//
// Usage:
//
//	pyext-ci -channel nightly -python 2.7,3.11 -project .
//
// The process exits 0 only when every matrix row passes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/docker/go-units"

	pyextci "github.com/contriboss/python-extension-ci"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	var (
		channel     = flag.String("channel", "", "Rust release channel (defaults to RUST_VERSION, then stable)")
		prefix      = flag.String("prefix", "", "toolchain install prefix (defaults to ~/.pyext-ci)")
		pythons     = flag.String("python", "3", "comma-separated interpreter versions forming the matrix")
		project     = flag.String("project", ".", "extension project directory")
		buildTarget = flag.String("build-target", "build", "make target compiling native code")
		testTarget  = flag.String("test-target", "test", "make target running the test suite")
		jobs        = flag.Int("jobs", 1, "concurrent matrix rows")
		verbose     = flag.Bool("verbose", false, "print build output for passing rows too")
	)
	flag.Parse()

	if *prefix == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory for default prefix: %w", err)
		}
		*prefix = filepath.Join(home, ".pyext-ci")
	}

	projectDir, err := filepath.Abs(*project)
	if err != nil {
		return err
	}

	versions := strings.Split(*pythons, ",")
	for i, v := range versions {
		versions[i] = strings.TrimSpace(v)
	}

	cfg := &pyextci.RunConfig{
		Channel:        *channel,
		Prefix:         *prefix,
		PythonVersions: versions,
		Parallelism:    *jobs,
		Logf:           log.Printf,
		Build: pyextci.BuildConfig{
			ProjectDir:    projectDir,
			BuildTarget:   *buildTarget,
			TestTarget:    *testTarget,
			Verbose:       *verbose,
			StopOnFailure: true,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rows, err := pyextci.RunMatrix(ctx, cfg)
	for _, row := range rows {
		report(row, *verbose)
	}

	return err
}

func report(row *pyextci.RunResult, verbose bool) {
	status := "PASS"
	if !row.Passed() {
		status = "FAIL"
	}

	fmt.Printf("python %-6s %s (%s)\n", row.PythonVersion, status, units.HumanDuration(row.Duration))
	if row.ToolchainVersion != "" {
		fmt.Printf("  toolchain: %s\n", row.ToolchainVersion)
	}

	if row.Err != nil {
		fmt.Printf("  error: %v\n", row.Err)
	}

	for _, result := range row.Results {
		if !result.Success || verbose {
			for _, line := range result.Output {
				fmt.Printf("  %s\n", line)
			}
		}
	}
}
