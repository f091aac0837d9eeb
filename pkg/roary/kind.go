package roary

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind of Roary output file, decided by extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindSummary
	KindMatrix
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindSummary:
		return "summary_statistics"
	case KindMatrix:
		return "gene_presence_absence"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// AllowedExtensions lists the accepted extensions of every kind. Any of them may
// carry an extra .gz.
var AllowedExtensions = map[Kind][]string{
	KindSummary: {".txt"},
	KindMatrix:  {".csv", ".rtab"},
	KindTree:    {".newick", ".nwk"},
}

func trimGz(name string) string {
	return strings.TrimSuffix(name, ".gz")
}

func DetectKind(filename string) Kind {
	ext := filepath.Ext(trimGz(strings.ToLower(filepath.Base(filename))))
	for kind, exts := range AllowedExtensions {
		for _, e := range exts {
			if ext == e {
				return kind
			}
		}
	}
	return KindUnknown
}

// ValidateExtension rejects files that are not a known Roary output.
func ValidateExtension(filename string) error {
	if DetectKind(filename) != KindUnknown {
		return nil
	}
	return fmt.Errorf("%w: %s. Allowed extensions: .txt, .csv, .Rtab, .newick (optionally gzipped)", ErrUnsupportedFile, filename)
}
