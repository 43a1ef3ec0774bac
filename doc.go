// Package pyextci orchestrates continuous-integration runs for native Python
// extensions written in Rust.
//
// A run pins a Rust toolchain, wires the process environment so the extension
// can link against and load the host interpreter's shared library, builds the
// extension, and executes the interpreter's test suite. Runs are repeated once
// per declared Python version, each repetition independent of its siblings.
//
// # Pipeline
//
// Each matrix row executes these steps strictly in order:
//
//  1. Bootstrap - install the requested Rust release channel into a
//     user-writable prefix via rustup-init (no privilege escalation)
//  2. Toolchain environment - prepend the cargo bin directory to PATH and
//     register the toolchain's library directory on LIBRARY_PATH
//  3. Interpreter discovery - locate the pythonX.Y binary and derive
//     PYTHON_LIB from its build configuration
//  4. Build - compile the extension through the selected builder
//  5. Test - run the interpreter's test suite through the same entry point
//
// Any step failure aborts the remaining steps for that row.
//
// # Build Systems
//
// The package includes builders for:
//   - Makefile - projects driven by make with separate build and test targets
//   - Cargo.toml - direct cargo builds of cdylib extension crates
//   - setup.py - setuptools-driven builds via build_ext
//
// # Basic Usage
//
// Configure a run and execute the matrix:
//
//	cfg := &pyextci.RunConfig{
//	    Channel:        "nightly",
//	    Prefix:         "/home/ci/.rust",
//	    PythonVersions: []string{"2.7", "3.11"},
//	    Extensions:     []string{"Makefile"},
//	    Build: pyextci.BuildConfig{
//	        ProjectDir: "/home/ci/project",
//	    },
//	}
//
//	rows, err := pyextci.RunMatrix(ctx, cfg)
//
// # Architecture
//
// Builders register with a factory that selects by entry file name:
//
//	BuilderFactory
//	├── MakefileBuilder (Makefile, GNUmakefile)
//	├── CargoBuilder (Cargo.toml)
//	└── SetuptoolsBuilder (setup.py)
//
// Each builder implements the Builder interface and can:
//   - Detect if it can handle a given entry file
//   - Build the extension with proper error handling
//   - Clean build artifacts
//
// # Requirements
//
// Requires Go 1.25 or later.
//
// # Platform Support
//
// Full support on Linux and macOS. Limited Windows support (MSVC targets
// of rustup are installed, but library path wiring is ELF/Mach-O centric).
package pyextci
