package main

import (
	"fmt"
	"os"

	"github.com/parusbuild/parusc/internal/driver"
	"github.com/parusbuild/parusc/internal/errors"
)

func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %q: %w", path, err)
	}
	return string(content), nil
}

// runFrontend reads path and drives internal/driver.Compile over it,
// giving `check` and `build` one shared entry point into the front end.
func runFrontend(path string) (*driver.Artifacts, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}
	art, _ := driver.Compile(src, path)
	return art, nil
}

// lowerToOIR continues fe into OIR build + optimize + verify.
func lowerToOIR(fe *driver.Artifacts) {
	fe.LowerToOIR()
}

func printDiagnostics(bag *errors.Bag) {
	for _, r := range bag.Reports {
		prefix := red("error")
		if r.Severity == errors.SeverityWarning {
			prefix = yellow("warning")
		}
		loc := ""
		if r.Span != nil {
			loc = fmt.Sprintf("%s: ", r.Span.Start.String())
		}
		fmt.Fprintf(os.Stderr, "%s[%s]: %s%s\n", prefix, r.Code, loc, r.Message)
	}
}
