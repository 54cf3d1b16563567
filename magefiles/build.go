//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Runs go mod download and then builds the meshpart binary into bin/.
func (Build) Cli() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/meshpart", "."), withStream()); err != nil {
		return err
	}
	return nil
}

type Test mg.Namespace

// Runs every test with the race detector enabled.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
