package pyextci

import (
	"os"
	"strings"
)

// Environment accumulates the variables exported to build and test commands.
//
// Mutations are ordered: PrependPath puts a directory in front of the
// current value so freshly installed tools shadow system-wide defaults,
// AppendPath adds to the back. Values not set here fall through to the
// process environment.
type Environment struct {
	names []string // insertion order, for stable rendering
	vars  map[string]string
}

// NewEnvironment returns an empty Environment layered over the process
// environment.
func NewEnvironment() *Environment {
	return &Environment{vars: map[string]string{}}
}

// Set assigns a variable, replacing any previous value.
func (e *Environment) Set(name, value string) {
	if _, ok := e.vars[name]; !ok {
		e.names = append(e.names, name)
	}
	e.vars[name] = value
}

// Get returns the effective value of a variable: an override if present,
// the process environment otherwise.
func (e *Environment) Get(name string) string {
	if value, ok := e.vars[name]; ok {
		return value
	}
	return os.Getenv(name)
}

// PrependPath places dir at the front of a list-valued variable such as PATH.
// Empty dirs are ignored.
func (e *Environment) PrependPath(name, dir string) {
	if dir == "" {
		return
	}
	current := e.Get(name)
	if current == "" {
		e.Set(name, dir)
		return
	}
	e.Set(name, dir+string(os.PathListSeparator)+current)
}

// AppendPath places dir at the back of a list-valued variable such as
// LD_LIBRARY_PATH. Empty dirs are ignored.
func (e *Environment) AppendPath(name, dir string) {
	if dir == "" {
		return
	}
	current := e.Get(name)
	if current == "" {
		e.Set(name, dir)
		return
	}
	e.Set(name, current+string(os.PathListSeparator)+dir)
}

// Overrides returns the variables set on this Environment, suitable for
// merging into BuildConfig.Env.
func (e *Environment) Overrides() map[string]string {
	out := make(map[string]string, len(e.vars))
	for name, value := range e.vars {
		out[name] = value
	}
	return out
}

// Environ renders the process environment with the overrides applied,
// in the form accepted by exec.Cmd.
func (e *Environment) Environ() []string {
	overridden := make(map[string]bool, len(e.vars))
	var out []string

	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if ok {
			if value, set := e.vars[name]; set {
				out = append(out, name+"="+value)
				overridden[name] = true
				continue
			}
		}
		out = append(out, kv)
	}

	for _, name := range e.names {
		if !overridden[name] {
			out = append(out, name+"="+e.vars[name])
		}
	}

	return out
}
