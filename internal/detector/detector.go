// Package detector holds the analysis passes the scanner runs over a file
// set. Detectors are independent: each sees only the shared set and
// returns its own findings.
package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/source"
)

// Detector is one analysis pass. Findings are returned in discovery order.
// An error aborts only this detector; findings returned alongside it are
// kept.
type Detector interface {
	Name() string
	Detect(ctx context.Context, set *source.Set) ([]models.Finding, error)
}

// Registry lists every detector in execution order.
var Registry = []Detector{
	Syntax{},
	Duplicate{},
	Complexity{},
	Smells{},
	Security{},
	SQLInjection{},
	Unused{},
	Naming{},
	FunctionLength{},
	Docstrings{},
	Prints{},
	Exceptions{},
	Secrets{},
	LineLength{},
	Encoding{},
}

// Names returns the registry names in execution order.
func Names() []string {
	names := make([]string, len(Registry))
	for i, d := range Registry {
		names[i] = d.Name()
	}
	return names
}

// Select returns the registry minus the named detectors, keeping order.
func Select(skip []string) ([]Detector, error) {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if Lookup(name) == nil {
			return nil, fmt.Errorf("unknown detector %q (available: %s)", name, strings.Join(Names(), ", "))
		}
		skipped[name] = true
	}

	selected := make([]Detector, 0, len(Registry))
	for _, d := range Registry {
		if !skipped[d.Name()] {
			selected = append(selected, d)
		}
	}
	return selected, nil
}

// Lookup returns the detector with the given name, or nil.
func Lookup(name string) Detector {
	for _, d := range Registry {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// eachFile calls fn for every file of the set that can be read and
// decoded. File-local failures skip the file.
func eachFile(ctx context.Context, set *source.Set, fn func(*source.File)) error {
	for _, path := range set.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		file, err := set.Load(path)
		if err != nil {
			if source.IsFileLocal(err) {
				continue
			}
			return err
		}
		fn(file)
	}
	return nil
}

// eachModule calls fn for every file of the set that parses.
func eachModule(ctx context.Context, set *source.Set, fn func(path string, m *pyparse.Module)) error {
	for _, path := range set.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := set.Module(ctx, path)
		if err != nil {
			if source.IsFileLocal(err) {
				continue
			}
			return err
		}
		fn(path, m)
	}
	return nil
}
