package detector

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/source"
)

const (
	duplicateWindow   = 5
	duplicateMinChars = 50
)

// Duplicate reports blocks of five consecutive lines that occur
// more than once across the whole file set.
type Duplicate struct{}

func (Duplicate) Name() string { return "duplicate" }

type location struct {
	path string
	line int
}

func (Duplicate) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	groups := make(map[string][]location)
	var order []string
	// block text per path and 1-based window start, for run merging
	windows := make(map[location]string)

	err := eachFile(ctx, set, func(file *source.File) {
		for i := 0; i+duplicateWindow <= len(file.Lines); i++ {
			block := strings.TrimSpace(strings.Join(file.Lines[i:i+duplicateWindow], "\n"))
			if utf8.RuneCountInString(block) <= duplicateMinChars {
				continue
			}
			loc := location{path: file.Path, line: i + 1}
			if _, ok := groups[block]; !ok {
				order = append(order, block)
			}
			groups[block] = append(groups[block], loc)
			windows[loc] = block
		}
	})
	if err != nil {
		return nil, err
	}

	var findings []models.Finding
	for _, block := range order {
		locs := groups[block]
		if len(locs) < 2 || continuesRun(locs, groups, windows) {
			continue
		}
		first := locs[0]
		findings = append(findings, models.Finding{
			File:        first.path,
			Line:        first.line,
			Severity:    models.SeverityMedium,
			Type:        "duplicate_code",
			Description: fmt.Sprintf("Duplicate code found in %d locations", len(locs)),
			Suggestion:  "Extract the block into a reusable function",
		})
	}
	return findings, nil
}

// continuesRun reports whether every location of a duplicated block is the
// one-line shift of a duplicated block that was already reported, so a
// duplicated region longer than the window yields a single finding.
func continuesRun(locs []location, groups map[string][]location, windows map[location]string) bool {
	prevBlock, ok := windows[location{path: locs[0].path, line: locs[0].line - 1}]
	if !ok {
		return false
	}
	prev := groups[prevBlock]
	if len(prev) != len(locs) {
		return false
	}
	for i, loc := range locs {
		if prev[i].path != loc.path || prev[i].line != loc.line-1 {
			return false
		}
	}
	return true
}
