//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for fmri-topics developer tooling.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the pipelines expect.
var projectDirs = []string{
	"data",
	"models",
	"figures",
}

// Init creates the project directory structure for the pipelines.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "fmri-topics"
	cmdPkg  = "./cmd/fmri-topics"
)

var binPath = filepath.Join(binDir, binName)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	if err := sh.RunV("go", "build", "-o", binPath, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", binPath)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Retrieve searches PubMed and caches identifiers and abstracts under data/.
func Retrieve() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "retrieve")
}

// Analyze runs the topic analysis for the model fitted with the given
// minimum cluster size and number of neighbors.
func Analyze(minClusterSize, nNeighbors int) error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "analyze",
		"--min_cluster_size", strconv.Itoa(minClusterSize),
		"--n_neighbors", strconv.Itoa(nNeighbors))
}

// Stats prints non-blank Go lines per source tree, split into production
// and test code, and the word count of the top-level Markdown documents.
func Stats() error {
	fmt.Printf("%-10s %8s %8s\n", "tree", "prod", "test")
	var prodTotal, testTotal int
	for _, root := range sourceTrees {
		prod, test, err := countGoLines(root)
		if err != nil {
			return err
		}
		prodTotal += prod
		testTotal += test
		fmt.Printf("%-10s %8d %8d\n", root, prod, test)
	}
	fmt.Printf("%-10s %8d %8d\n", "total", prodTotal, testTotal)

	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	words := 0
	for _, d := range docs {
		data, err := os.ReadFile(d)
		if err != nil {
			return fmt.Errorf("reading %s: %w", d, err)
		}
		words += len(strings.Fields(string(data)))
	}
	fmt.Printf("Words (documentation): %d\n", words)
	return nil
}

var sourceTrees = []string{"cmd", "internal", "pkg", "magefiles"}

// countGoLines counts non-blank lines in the Go files under root.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}
