//go:build mage

package main

import (
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Vet runs go vet over the module.
func Vet() error {
	return runGo("vet", "./...")
}

// Test runs the full test suite.
func Test() error {
	return runGo("test", "./...")
}

// Check runs vet and the test suite, the pre-commit gate.
func Check() {
	mg.Deps(Vet, Test)
}

func runGo(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
