package pyextci

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/docker/go-units"
)

// rustupDistURL is the fixed remote location of the rustup installer binary,
// parameterized by host target triple.
const rustupDistURL = "https://static.rust-lang.org/rustup/dist/%s/rustup-init"

// Bootstrapper installs a Rust toolchain release channel into an isolated,
// user-writable prefix.
//
// The install runs rustup-init non-interactively (-y), without touching shell
// profiles (--no-modify-path) and without privilege escalation; everything is
// written beneath Prefix. Installation is idempotent: when the prefix already
// holds a toolchain reporting the requested channel, Install returns without
// downloading anything.
//
// A network or installer failure is fatal; there are no retries. The caller
// treats any error as aborting the remaining pipeline steps.
type Bootstrapper struct {
	// Channel is the release channel to install: "stable", "beta", "nightly",
	// or a pinned version like "1.79.0". Empty falls back to the RUST_VERSION
	// environment variable, then "stable".
	Channel string

	// Prefix is the install prefix. The rustup and cargo homes are created
	// beneath it. Required.
	Prefix string

	// Client is the HTTP client used to download the installer.
	// Defaults to http.DefaultClient.
	Client *http.Client

	// DistURL overrides the installer download URL. Used in tests.
	DistURL string

	// Logf receives progress lines. Nil disables progress reporting.
	Logf func(format string, args ...any)
}

// RustupHome returns the RUSTUP_HOME directory under the prefix.
func (b *Bootstrapper) RustupHome() string {
	return filepath.Join(b.Prefix, "rustup")
}

// CargoHome returns the CARGO_HOME directory under the prefix.
func (b *Bootstrapper) CargoHome() string {
	return filepath.Join(b.Prefix, "cargo")
}

// BinDir returns the directory holding the installed toolchain binaries.
// Prepend it to PATH so the pinned toolchain shadows any system default.
func (b *Bootstrapper) BinDir() string {
	return filepath.Join(b.CargoHome(), "bin")
}

// channel resolves the effective release channel.
func (b *Bootstrapper) channel() string {
	if b.Channel != "" {
		return b.Channel
	}
	if env := os.Getenv("RUST_VERSION"); env != "" {
		return env
	}
	return "stable"
}

// Install downloads and runs the rustup installer for the configured channel.
//
// The sequence is strictly ordered: probe for an existing install, download
// the installer, execute it, verify the reported version. The first failure
// is returned and nothing is retried. Partial writes under the prefix are
// left in place for the next attempt to overwrite.
func (b *Bootstrapper) Install(ctx context.Context) error {
	if b.Prefix == "" {
		return fmt.Errorf("bootstrapper: install prefix is required")
	}

	channel := b.channel()

	// Idempotence probe: an existing toolchain on the same channel is kept.
	if version, err := b.RustcVersion(ctx); err == nil && reportsChannel(version, channel) {
		b.logf("toolchain already installed: %s", version)
		return nil
	}

	installer, err := b.downloadInstaller(ctx)
	if err != nil {
		return err
	}
	defer os.Remove(installer)

	args := []string{
		"-y",
		"--no-modify-path",
		"--profile", "minimal",
		"--default-toolchain", channel,
	}

	cmd := exec.CommandContext(ctx, installer, args...)
	cmd.Env = append(os.Environ(),
		"RUSTUP_HOME="+b.RustupHome(),
		"CARGO_HOME="+b.CargoHome(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return BuildError("rustup-init", strings.Split(string(output), "\n"), err)
	}

	version, err := b.RustcVersion(ctx)
	if err != nil {
		return fmt.Errorf("toolchain installed but rustc is not runnable: %w", err)
	}
	if !reportsChannel(version, channel) {
		return fmt.Errorf("installed toolchain reports %q, want channel %q", version, channel)
	}

	b.logf("installed toolchain: %s", version)
	return nil
}

// RustcVersion runs the installed rustc's version query and returns the
// reported version string.
func (b *Bootstrapper) RustcVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, filepath.Join(b.BinDir(), rustcExecutable()), "--version")
	cmd.Env = append(os.Environ(),
		"RUSTUP_HOME="+b.RustupHome(),
		"CARGO_HOME="+b.CargoHome(),
	)

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}

// LibDir returns the installed toolchain's own library directory, for
// LIBRARY_PATH. Resolved via `rustc --print sysroot`.
func (b *Bootstrapper) LibDir(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, filepath.Join(b.BinDir(), rustcExecutable()), "--print", "sysroot")
	cmd.Env = append(os.Environ(),
		"RUSTUP_HOME="+b.RustupHome(),
		"CARGO_HOME="+b.CargoHome(),
	)

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve toolchain sysroot: %w", err)
	}

	return filepath.Join(strings.TrimSpace(string(output)), "lib"), nil
}

// ExportTo prepends the toolchain bin directory to PATH and registers the
// toolchain's library directory on LIBRARY_PATH.
func (b *Bootstrapper) ExportTo(ctx context.Context, env *Environment) error {
	env.PrependPath("PATH", b.BinDir())
	env.Set("RUSTUP_HOME", b.RustupHome())
	env.Set("CARGO_HOME", b.CargoHome())

	libDir, err := b.LibDir(ctx)
	if err != nil {
		return err
	}
	env.AppendPath("LIBRARY_PATH", libDir)

	return nil
}

// downloadInstaller fetches rustup-init into the prefix and marks it
// executable. Exactly one attempt; any failure is returned as-is.
func (b *Bootstrapper) downloadInstaller(ctx context.Context) (string, error) {
	url := b.DistURL
	if url == "" {
		triple, err := hostTriple()
		if err != nil {
			return "", err
		}
		url = fmt.Sprintf(rustupDistURL, triple)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("installer download failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("installer download failed: %s returned %s", url, res.Status)
	}

	if err := os.MkdirAll(b.Prefix, 0o755); err != nil {
		return "", err
	}

	installer := filepath.Join(b.Prefix, installerName())
	out, err := os.OpenFile(installer, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(out, res.Body)
	if err != nil {
		out.Close()
		return "", fmt.Errorf("installer download failed: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	b.logf("downloaded %s (%s in %s)", filepath.Base(installer),
		units.HumanSize(float64(written)), units.HumanDuration(time.Since(start)))

	return installer, nil
}

func (b *Bootstrapper) logf(format string, args ...any) {
	if b.Logf != nil {
		b.Logf(format, args...)
	}
}

// reportsChannel checks a `rustc --version` string against a release channel.
//
// Named pre-release channels appear verbatim in the version string
// ("rustc 1.81.0-nightly (...)"). Stable builds carry no marker, so stable
// is satisfied by the absence of a pre-release suffix. Pinned versions like
// "1.79.0" must appear in the string.
func reportsChannel(version, channel string) bool {
	switch channel {
	case "nightly", "beta":
		return strings.Contains(version, channel)
	case "stable", "":
		return !strings.Contains(version, "nightly") && !strings.Contains(version, "beta")
	default:
		return strings.Contains(version, channel)
	}
}

// hostTriple maps the host platform to a Rust target triple.
func hostTriple() (string, error) {
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/amd64":
		return "x86_64-unknown-linux-gnu", nil
	case "linux/arm64":
		return "aarch64-unknown-linux-gnu", nil
	case "darwin/amd64":
		return "x86_64-apple-darwin", nil
	case "darwin/arm64":
		return "aarch64-apple-darwin", nil
	case "windows/amd64":
		return "x86_64-pc-windows-msvc", nil
	default:
		return "", fmt.Errorf("no rustup target for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
}

func installerName() string {
	if runtime.GOOS == platformWindows {
		return "rustup-init.exe"
	}
	return "rustup-init"
}

func rustcExecutable() string {
	if runtime.GOOS == platformWindows {
		return "rustc.exe"
	}
	return "rustc"
}
