package aggregator

import (
	"path/filepath"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
)

// Normalizer rewrites finding paths relative to the scan root so reports
// taken from different checkouts of the same tree compare equal.
type Normalizer struct {
	root string
}

// NewNormalizer creates a normalizer for findings under root
func NewNormalizer(root string) *Normalizer {
	return &Normalizer{root: root}
}

// Path returns file relative to the root with forward slashes. Paths
// outside the root are returned cleaned but otherwise unchanged.
func (n *Normalizer) Path(file string) string {
	if n.root != "" {
		if rel, err := filepath.Rel(n.root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(file))
}

// Normalize returns a copy of the findings with normalized paths
func (n *Normalizer) Normalize(findings []models.Finding) []models.Finding {
	out := make([]models.Finding, len(findings))
	for i, f := range findings {
		f.File = n.Path(f.File)
		out[i] = f
	}
	return out
}

// Fingerprint identifies a finding independently of its line number, so a
// finding that only moved is not reported as new.
func (n *Normalizer) Fingerprint(f models.Finding) string {
	return strings.Join([]string{n.Path(f.File), f.Type, f.Description}, "|")
}
