// Readers for Roary output files: the gene presence/absence table (CSV or Rtab)
// and summary_statistics.txt.

package roary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
	"github.com/yumyai/roaryviz/pkg/model"
)

// Roary writes 14 annotation columns before the first genome column.
const MetadataColumns = 14

var (
	ErrFormat          = errors.New("invalid roary file format")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// ParseError locates a format problem in the input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// ReadPresenceAbsence reads gene_presence_absence.csv. A genome cell holding any
// gene name marks the gene present.
func ReadPresenceAbsence(r io.Reader) (*model.Matrix, error) {

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrFormat, model.ErrEmptyMatrix)
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	if len(header) <= MetadataColumns {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("expected more than %d columns, got %d", MetadataColumns, len(header))}
	}

	genomeIDs, err := genomeHeader(header[MetadataColumns:])
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	return readRows(cr, genomeIDs, func(field string) (uint8, error) {
		if strings.TrimSpace(field) == "" {
			return 0, nil
		}
		return 1, nil
	}, MetadataColumns)
}

// ReadRtab reads gene_presence_absence.Rtab: a Gene column followed by one 0/1
// column per genome, tab separated.
func ReadRtab(r io.Reader) (*model.Matrix, error) {

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrFormat, model.ErrEmptyMatrix)
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	if len(header) < 2 {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("expected a gene column and at least one genome")}
	}

	genomeIDs, err := genomeHeader(header[1:])
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	return readRows(cr, genomeIDs, func(field string) (uint8, error) {
		switch strings.TrimSpace(field) {
		case "0":
			return 0, nil
		case "1":
			return 1, nil
		default:
			return 0, fmt.Errorf("cell %q is not 0 or 1", field)
		}
	}, 1)
}

func genomeHeader(fields []string) ([]string, error) {
	ids := make([]string, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		id := strings.TrimSpace(f)
		if id == "" {
			return nil, fmt.Errorf("genome column %d has no name", i+1)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate genome column %q", id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, nil
}

// readRows reads gene rows whose first field is the gene name and whose genome
// cells start at firstGenome.
func readRows(cr *csv.Reader, genomeIDs []string, cell func(string) (uint8, error), firstGenome int) (*model.Matrix, error) {

	var (
		geneIDs []string
		cells   [][]uint8
		taken   = map[string]bool{}
		next    = map[string]int{}
	)

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if len(record) != firstGenome+len(genomeIDs) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("expected %d fields, got %d", firstGenome+len(genomeIDs), len(record))}
		}

		gene := strings.TrimSpace(record[0])
		if gene == "" {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("missing gene name")}
		}
		// Keep identifiers unique when Roary repeats a name.
		if taken[gene] {
			n := max(next[gene], 2)
			for taken[fmt.Sprintf("%s_%d", gene, n)] {
				n++
			}
			next[gene] = n + 1
			gene = fmt.Sprintf("%s_%d", gene, n)
		}
		taken[gene] = true

		row := make([]uint8, len(genomeIDs))
		for j, field := range record[firstGenome:] {
			v, err := cell(field)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			row[j] = v
		}

		geneIDs = append(geneIDs, gene)
		cells = append(cells, row)
	}

	if len(geneIDs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrFormat, model.ErrEmptyMatrix)
	}

	return model.NewMatrix(geneIDs, genomeIDs, cells)
}

// ReadMatrixFile reads a presence/absence file, choosing the format by extension.
// Gzipped files are read transparently.
func ReadMatrixFile(path string) (*model.Matrix, error) {

	kind := DetectKind(path)
	if kind != KindMatrix {
		return nil, fmt.Errorf("%w: %s is not a presence/absence table", ErrUnsupportedFile, path)
	}

	fh, err := xopen.Ropen(path)
	if errors.Is(err, xopen.ErrNoContent) {
		return nil, fmt.Errorf("%w: %s: %w", ErrFormat, path, model.ErrEmptyMatrix)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	if strings.HasSuffix(trimGz(strings.ToLower(path)), ".rtab") {
		return ReadRtab(fh)
	}
	return ReadPresenceAbsence(fh)
}

// SummaryRow is one category line of summary_statistics.txt.
type SummaryRow struct {
	Category string `json:"category"`
	Range    string `json:"range"`
	Count    int    `json:"count"`
}

// ReadSummaryStatistics reads summary_statistics.txt. Lines whose last field is
// not a number (such as a header) are skipped.
func ReadSummaryStatistics(r io.Reader) ([]SummaryRow, error) {

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []SummaryRow
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if len(record) < 2 {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(record[len(record)-1]))
		if err != nil {
			continue
		}

		row := SummaryRow{
			Category: strings.TrimSpace(record[0]),
			Count:    count,
		}
		if len(record) > 2 {
			row.Range = strings.TrimSpace(record[1])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no summary statistics found", ErrFormat)
	}
	return rows, nil
}

func ReadSummaryFile(path string) ([]SummaryRow, error) {
	fh, err := xopen.Ropen(path)
	if errors.Is(err, xopen.ErrNoContent) {
		return nil, fmt.Errorf("%w: %s is empty", ErrFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	return ReadSummaryStatistics(fh)
}
