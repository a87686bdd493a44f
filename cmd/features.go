package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/chriserin/stepwise/internal/parser"
	"github.com/chriserin/stepwise/pkg/engine"
)

// featurePaths returns args when given, otherwise every .feature file under
// dir.
func featurePaths(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("features directory %s not found (run `stepwise init` first)", dir)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".feature" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// loadScenarios parses every file. Syntax errors from all files are joined.
func loadScenarios(paths []string) ([]engine.Scenario, error) {
	var scenarios []engine.Scenario
	var errs []error
	for _, path := range paths {
		pf, err := parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, pe := range pf.Errors {
			errs = append(errs, fmt.Errorf("%s:%d: %s", path, pe.Line, pe.Message))
		}
		scenarios = append(scenarios, pf.Scenarios...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return scenarios, nil
}
