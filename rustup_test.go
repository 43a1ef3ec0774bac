package pyextci

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubToolchain populates prefix with a fake installed toolchain whose rustc
// reports the given version string.
func stubToolchain(t *testing.T, prefix, version string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script toolchain stubs require a POSIX shell")
	}

	binDir := filepath.Join(prefix, "cargo", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))

	sysroot := filepath.Join(prefix, "sysroot")
	require.NoError(t, os.MkdirAll(sysroot, 0o755))

	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--print" ]; then
	printf '%%s\n' %q
else
	printf '%%s\n' %q
fi
`, sysroot, version)

	require.NoError(t, os.WriteFile(filepath.Join(binDir, "rustc"), []byte(script), 0o755))
}

func TestBootstrapperPaths(t *testing.T) {
	b := &Bootstrapper{Prefix: "/opt/ci"}

	require.Equal(t, filepath.Join("/opt/ci", "rustup"), b.RustupHome())
	require.Equal(t, filepath.Join("/opt/ci", "cargo"), b.CargoHome())
	require.Equal(t, filepath.Join("/opt/ci", "cargo", "bin"), b.BinDir())
}

func TestBootstrapperChannelResolution(t *testing.T) {
	t.Setenv("RUST_VERSION", "")

	b := &Bootstrapper{}
	require.Equal(t, "stable", b.channel())

	t.Setenv("RUST_VERSION", "nightly")
	require.Equal(t, "nightly", b.channel())

	b.Channel = "beta"
	require.Equal(t, "beta", b.channel())
}

func TestInstallRequiresPrefix(t *testing.T) {
	b := &Bootstrapper{Channel: "stable"}

	err := b.Install(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "prefix")
}

func TestInstallIsIdempotent(t *testing.T) {
	prefix := t.TempDir()
	stubToolchain(t, prefix, "rustc 1.82.0-nightly (abcdef123 2026-08-01)")

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	b := &Bootstrapper{
		Channel: "nightly",
		Prefix:  prefix,
		DistURL: server.URL,
	}

	require.NoError(t, b.Install(context.Background()))
	require.Zero(t, hits.Load(), "matching toolchain must not trigger a download")

	// Same channel again: still no download, same reported version.
	require.NoError(t, b.Install(context.Background()))
	version, err := b.RustcVersion(context.Background())
	require.NoError(t, err)
	require.Contains(t, version, "nightly")
}

func TestInstallRunsInstaller(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script installer stubs require a POSIX shell")
	}

	prefix := t.TempDir()

	// The fake installer behaves like rustup-init: it creates the cargo bin
	// directory beneath CARGO_HOME and drops a rustc that reports nightly.
	installer := `#!/bin/sh
mkdir -p "$CARGO_HOME/bin"
cat > "$CARGO_HOME/bin/rustc" <<'EOF'
#!/bin/sh
if [ "$1" = "--print" ]; then
	printf '%s\n' "$CARGO_HOME"
else
	printf 'rustc 1.82.0-nightly (stub 2026-08-01)\n'
fi
EOF
chmod +x "$CARGO_HOME/bin/rustc"
`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(installer))
	}))
	defer server.Close()

	var logged []string
	b := &Bootstrapper{
		Channel: "nightly",
		Prefix:  prefix,
		DistURL: server.URL,
		Logf: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		},
	}

	require.NoError(t, b.Install(context.Background()))

	version, err := b.RustcVersion(context.Background())
	require.NoError(t, err)
	require.Contains(t, version, "nightly")

	// The installer artifact is cleaned up after a successful install.
	_, err = os.Stat(filepath.Join(prefix, "rustup-init"))
	require.True(t, os.IsNotExist(err), "installer should be removed")

	require.NotEmpty(t, logged)
}

func TestInstallFailsOnDownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	b := &Bootstrapper{
		Channel: "nightly",
		Prefix:  t.TempDir(),
		DistURL: server.URL,
	}

	err := b.Install(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "download failed")
}

func TestInstallFailsWhenInstallerFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script installer stubs require a POSIX shell")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#!/bin/sh\necho 'no space left on device' >&2\nexit 1\n"))
	}))
	defer server.Close()

	b := &Bootstrapper{
		Channel: "nightly",
		Prefix:  t.TempDir(),
		DistURL: server.URL,
	}

	err := b.Install(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "rustup-init")
}

func TestReportsChannel(t *testing.T) {
	testCases := []struct {
		version  string
		channel  string
		expected bool
	}{
		{"rustc 1.82.0-nightly (abc 2026-08-01)", "nightly", true},
		{"rustc 1.82.0-beta.1 (abc 2026-08-01)", "beta", true},
		{"rustc 1.80.0 (abc 2026-07-01)", "stable", true},
		{"rustc 1.82.0-nightly (abc 2026-08-01)", "stable", false},
		{"rustc 1.80.0 (abc 2026-07-01)", "nightly", false},
		{"rustc 1.79.0 (abc 2026-06-01)", "1.79.0", true},
		{"rustc 1.80.0 (abc 2026-07-01)", "1.79.0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.channel, func(t *testing.T) {
			require.Equal(t, tc.expected, reportsChannel(tc.version, tc.channel))
		})
	}
}

func TestHostTriple(t *testing.T) {
	triple, err := hostTriple()
	if err != nil {
		t.Skipf("no rustup target for this platform: %v", err)
	}
	require.NotEmpty(t, triple)
}
