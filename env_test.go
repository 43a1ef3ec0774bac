package pyextci

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvironmentSetAndGet(t *testing.T) {
	env := NewEnvironment()

	env.Set("PYTHON_LIB", "/usr/lib/python3.11")
	require.Equal(t, "/usr/lib/python3.11", env.Get("PYTHON_LIB"))

	env.Set("PYTHON_LIB", "/opt/lib")
	require.Equal(t, "/opt/lib", env.Get("PYTHON_LIB"))
}

func TestEnvironmentGetFallsThroughToProcess(t *testing.T) {
	t.Setenv("PYEXTCI_TEST_VAR", "from-process")

	env := NewEnvironment()
	require.Equal(t, "from-process", env.Get("PYEXTCI_TEST_VAR"))
}

func TestEnvironmentPrependPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")

	env := NewEnvironment()
	env.PrependPath("PATH", "/opt/cargo/bin")

	sep := string(os.PathListSeparator)
	require.Equal(t, "/opt/cargo/bin"+sep+"/usr/bin", env.Get("PATH"))

	// The freshly installed toolchain must shadow the system default.
	first := strings.Split(env.Get("PATH"), sep)[0]
	require.Equal(t, "/opt/cargo/bin", first)
}

func TestEnvironmentAppendPath(t *testing.T) {
	t.Setenv("LD_LIBRARY_PATH", "/usr/lib")

	env := NewEnvironment()
	env.AppendPath("LD_LIBRARY_PATH", "/usr/lib/python3.11")

	sep := string(os.PathListSeparator)
	require.Equal(t, "/usr/lib"+sep+"/usr/lib/python3.11", env.Get("LD_LIBRARY_PATH"))
}

func TestEnvironmentAppendPathEmptyBase(t *testing.T) {
	t.Setenv("LIBRARY_PATH", "")

	env := NewEnvironment()
	env.AppendPath("LIBRARY_PATH", "/usr/lib/python3.11")
	require.Equal(t, "/usr/lib/python3.11", env.Get("LIBRARY_PATH"))

	// Empty directories are ignored.
	env.AppendPath("LIBRARY_PATH", "")
	require.Equal(t, "/usr/lib/python3.11", env.Get("LIBRARY_PATH"))
}

func TestEnvironmentEnviron(t *testing.T) {
	t.Setenv("PYEXTCI_EXISTING", "old")

	env := NewEnvironment()
	env.Set("PYEXTCI_EXISTING", "new")
	env.Set("PYEXTCI_ADDED", "value")

	environ := env.Environ()

	var sawExisting, sawAdded bool
	for _, kv := range environ {
		switch kv {
		case "PYEXTCI_EXISTING=new":
			sawExisting = true
		case "PYEXTCI_ADDED=value":
			sawAdded = true
		case "PYEXTCI_EXISTING=old":
			t.Fatal("override was not applied")
		}
	}

	require.True(t, sawExisting, "expected overridden variable in environ")
	require.True(t, sawAdded, "expected added variable in environ")
}

func TestEnvironmentOverrides(t *testing.T) {
	env := NewEnvironment()
	env.Set("PYTHON_LIB", "/usr/lib/python3.11")

	overrides := env.Overrides()
	require.Equal(t, map[string]string{"PYTHON_LIB": "/usr/lib/python3.11"}, overrides)

	// Mutating the copy must not affect the environment.
	overrides["PYTHON_LIB"] = "/elsewhere"
	require.Equal(t, "/usr/lib/python3.11", env.Get("PYTHON_LIB"))
}
