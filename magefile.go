//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles every command into ./bin
func Build() error {
	mg.Deps(BuildDecoder, BuildMeasureFormats)
	fmt.Println("Compilation finished")
	return nil
}

func BuildDecoder() error {
	fmt.Println("Building decoder executable...")
	return goCommand(true, "build", "-o", "./bin/decoder", "./decoder")
}

// BuildMeasureFormats needs no HDF5 library.
func BuildMeasureFormats() error {
	fmt.Println("Building measureFormats executable...")
	return goCommand(false, "build", "-o", "./bin/measureFormats", "./measureFormats")
}

// Test runs the unit tests. The writer package links against HDF5.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand(true, "test", "./...")
}

// Fuzz runs the decoder fuzz targets for a short while.
func Fuzz() error {
	mg.Deps(Test)
	fmt.Println("Fuzzing decoders...")
	return goCommand(false, "test", "-tags", "fuzz", "-run", "^$", "-fuzz", "FuzzDecode", "-fuzztime", "30s", "./pkg")
}

func goCommand(cgo bool, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	if cgo {
		cmd.Env = append(cmd.Env,
			"CGO_ENABLED=1",
			fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
			fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
