//go:build mage

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type (
	Test  mg.Namespace
	Build mg.Namespace
)

const (
	binary       = "bin/tandem"
	mainPackage  = "./cmd/tandem"
	coverageFile = "coverage/coverage.out"
	// minCoverage is enforced in CI only.
	minCoverage = 85.0
)

var Aliases = map[string]interface{}{
	"build": Build.Dev,
	"test":  Test.Unit,
}

func isCI() bool {
	return os.Getenv("CI") != ""
}

// Unit runs the package tests. They create real git repositories in temp
// directories, so git must be on PATH.
func (Test) Unit() error {
	fmt.Println("Running unit tests...")
	return sh.RunV("go", "test", "-short", "./...")
}

// Integration runs the testscript scenarios against the built command.
func (Test) Integration() error {
	fmt.Println("Running integration tests...")
	return sh.RunV("go", "test", "-tags=integration", "-timeout=300s", mainPackage+"/...")
}

// Coverage runs unit tests with coverage and fails in CI below minCoverage.
func (Test) Coverage() error {
	fmt.Println("Running unit tests with coverage...")

	if err := os.MkdirAll("coverage", 0o755); err != nil {
		return err
	}

	args := []string{"test", "-short", "-coverprofile=" + coverageFile, "-coverpkg=./internal/...", "-covermode=atomic"}
	if isCI() {
		args = append(args, "-race")
	}
	args = append(args, "./...")
	if err := sh.RunV("go", args...); err != nil {
		return err
	}

	if !isCI() {
		if err := sh.RunV("go", "tool", "cover", "-html="+coverageFile, "-o=coverage/coverage.html"); err != nil {
			return err
		}
		fmt.Println("Coverage report generated at coverage/coverage.html")
	}

	total, err := coverageTotal()
	if err != nil {
		return err
	}
	fmt.Printf("Total coverage: %.1f%%\n", total)

	if isCI() && total < minCoverage {
		return fmt.Errorf("coverage %.1f%% is below the required %.0f%%", total, minCoverage)
	}
	return nil
}

// coverageTotal reads the "total:" line of go tool cover -func.
func coverageTotal() (float64, error) {
	output, err := sh.Output("go", "tool", "cover", "-func="+coverageFile)
	if err != nil {
		return 0, err
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) == 0 || fields[0] != "total:" {
		return 0, fmt.Errorf("no total in coverage output")
	}
	return strconv.ParseFloat(strings.TrimSuffix(fields[len(fields)-1], "%"), 64)
}

// Dev builds the tandem binary for development.
func (Build) Dev() error {
	fmt.Println("Building tandem...")
	return sh.RunV("go", "build", "-o", binary, mainPackage)
}

// Release builds static binaries for the platforms the host tree builds on.
func (Build) Release() error {
	fmt.Println("Building release binaries...")

	for _, target := range []string{"linux/amd64", "linux/arm64", "darwin/amd64", "darwin/arm64"} {
		goos, goarch, _ := strings.Cut(target, "/")
		output := fmt.Sprintf("%s-%s-%s", binary, goos, goarch)
		fmt.Printf("Building %s...\n", output)

		env := map[string]string{"GOOS": goos, "GOARCH": goarch, "CGO_ENABLED": "0"}
		if err := sh.RunWithV(env, "go", "build", "-ldflags", "-s -w", "-o", output, mainPackage); err != nil {
			return err
		}
	}
	return nil
}

// Lint runs golangci-lint (with --fix unless in CI).
func Lint() error {
	fmt.Println("Running golangci-lint...")
	if isCI() {
		return sh.RunV("golangci-lint", "run")
	}
	return sh.RunV("golangci-lint", "run", "--fix")
}

func CI() error {
	fmt.Println("Running CI pipeline...")

	steps := []struct {
		name string
		run  func() error
	}{
		{"cleanup", Clean},
		{"linting", Lint},
		{"unit tests with coverage", Test{}.Coverage},
		{"integration tests", Test{}.Integration},
		{"build", Build{}.Dev},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s failed: %w", step.name, err)
		}
	}

	fmt.Println("CI pipeline completed successfully!")
	return nil
}

// Clean removes all generated artifacts.
func Clean() error {
	fmt.Println("Cleaning all artifacts...")

	for _, dir := range []string{"coverage", "bin"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return sh.RunV("go", "clean", "-testcache")
}

// Default target runs unit tests.
func Default() error {
	return Test{}.Unit()
}
