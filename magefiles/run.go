//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Partitions every procedural shape and writes a preview image for each.
func (Run) Demo() error {
	mg.Deps(Build.Cli)

	shapes, err := executeCmd("bin/meshpart", withArgs("shapes"))
	if err != nil {
		return err
	}
	for _, shape := range splitLines(shapes) {
		fmt.Printf("Partitioning %s...\n", shape)
		if _, err := executeCmd("bin/meshpart", withArgs("split", shape), withStream()); err != nil {
			return err
		}
		out := fmt.Sprintf("bin/%s.png", shape[len("sdf:"):])
		if _, err := executeCmd("bin/meshpart", withArgs("preview", shape, "--out", out)); err != nil {
			return err
		}
	}
	return nil
}
