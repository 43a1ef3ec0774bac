//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Test

// Build compiles the pyext-ci command.
func Build() error {
	return sh.RunV("go", "build", "./cmd/pyext-ci")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// CI runs the full verification pipeline.
func CI() {
	mg.SerialDeps(Vet, Build, Test)
}
