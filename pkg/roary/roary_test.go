package roary

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/roaryviz/pkg/model"
)

const roaryHeader = `"Gene","Non-unique Gene name","Annotation","No. isolates","No. sequences","Avg sequences per isolate","Genome Fragment","Order within Fragment","Accessory Fragment","Accessory Order with Fragment","QC","Min group size nuc","Max group size nuc","Avg group size nuc","KCB09","MCC17","P45BR"`

func roaryRow(gene string, cells ...string) string {
	meta := []string{`"` + gene + `"`, `""`, `"hypothetical protein"`, `"1"`, `"1"`, `"1"`, `"1"`, `"1"`, `""`, `""`, `""`, `"300"`, `"300"`, `"300"`}
	for _, c := range cells {
		meta = append(meta, `"`+c+`"`)
	}
	return strings.Join(meta, ",")
}

func sampleCSV() string {
	return strings.Join([]string{
		roaryHeader,
		roaryRow("groEL", "KCB09_00001", "MCC17_00001", "P45BR_00001"),
		roaryRow("group_12", "KCB09_00002", "", "P45BR_00007"),
		roaryRow("group_13", "", "", ""),
		roaryRow("group_12", "", "MCC17_00044", ""),
	}, "\n") + "\n"
}

func TestReadPresenceAbsence(t *testing.T) {
	m, err := ReadPresenceAbsence(strings.NewReader(sampleCSV()))
	require.NoError(t, err)

	assert.Equal(t, []string{"KCB09", "MCC17", "P45BR"}, m.GenomeIDs())
	assert.Equal(t, []string{"groEL", "group_12", "group_13", "group_12_2"}, m.GeneIDs())
	assert.Equal(t, []int{3, 2, 0, 1}, m.GeneFrequencies())
	assert.Equal(t, []uint8{1, 0, 1}, m.Row(1))
}

func TestReadPresenceAbsence_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", roaryHeader + "\n"},
		{"no genome columns", `"Gene","Annotation"` + "\n" + `"a","b"` + "\n"},
		{"short row", roaryHeader + "\n" + `"groEL","",""` + "\n"},
		{"duplicate genome", strings.Replace(roaryHeader, `"P45BR"`, `"KCB09"`, 1) + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPresenceAbsence(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadPresenceAbsence_ParseErrorLine(t *testing.T) {
	input := roaryHeader + "\n" + roaryRow("groEL", "x", "y", "z") + "\n" + `"bad","row"` + "\n"

	_, err := ReadPresenceAbsence(strings.NewReader(input))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
}

func TestReadRtab(t *testing.T) {
	input := "Gene\tA\tB\n" +
		"g1\t1\t1\n" +
		"g2\t0\t1\n"

	m, err := ReadRtab(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, m.GenomeIDs())
	assert.Equal(t, []int{2, 1}, m.GeneFrequencies())

	_, err = ReadRtab(strings.NewReader("Gene\tA\ng1\t2\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadRtab_RepeatedGeneNames(t *testing.T) {
	input := "Gene\tA\tB\n" +
		"a\t1\t0\n" +
		"a_2\t0\t1\n" +
		"a\t1\t1\n" +
		"a\t0\t1\n" +
		"a_3\t1\t0\n"

	m, err := ReadRtab(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "a_3", "a_4", "a_3_2"}, m.GeneIDs())
	assert.Equal(t, []int{1, 1, 2, 1, 1}, m.GeneFrequencies())
}

func TestReadMatrixFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "gene_presence_absence.csv")
	require.NoError(t, os.WriteFile(plain, []byte(sampleCSV()), 0o644))

	gz := filepath.Join(dir, "gene_presence_absence.Rtab.gz")
	f, err := os.Create(gz)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("Gene\tA\tB\ng1\t1\t0\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	m, err := ReadMatrixFile(plain)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumGenes())

	m, err = ReadMatrixFile(gz)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, m.GeneIDs())

	_, err = ReadMatrixFile(filepath.Join(dir, "summary_statistics.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadMatrixFile(empty)
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, model.ErrEmptyMatrix)
}

func TestReadSummaryStatistics(t *testing.T) {
	input := "Core genes\t(99% <= strains <= 100%)\t2000\n" +
		"Soft core genes\t(95% <= strains < 99%)\t150\n" +
		"Shell genes\t(15% <= strains < 95%)\t900\n" +
		"Cloud genes\t(0% <= strains < 15%)\t3100\n" +
		"Total genes\t(0% <= strains <= 100%)\t6150\n"

	rows, err := ReadSummaryStatistics(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, SummaryRow{Category: "Core genes", Range: "(99% <= strains <= 100%)", Count: 2000}, rows[0])
	assert.Equal(t, 6150, rows[4].Count)
}

func TestReadSummaryStatistics_HeaderAndTwoColumns(t *testing.T) {
	input := "Category\tCount\tPercentage\n" +
		"Core genes\t100\t50\n" +
		"Cloud\t20\n"

	rows, err := ReadSummaryStatistics(strings.NewReader(input))
	require.NoError(t, err)

	// The trailing column is the count, so the three-column row reads its percentage.
	assert.Equal(t, []SummaryRow{
		{Category: "Core genes", Range: "100", Count: 50},
		{Category: "Cloud", Count: 20},
	}, rows)

	_, err = ReadSummaryStatistics(strings.NewReader("just a header\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"summary_statistics.txt", KindSummary},
		{"gene_presence_absence.csv", KindMatrix},
		{"GENE_PRESENCE_ABSENCE.CSV", KindMatrix},
		{"gene_presence_absence.Rtab", KindMatrix},
		{"gene_presence_absence.csv.gz", KindMatrix},
		{"accessory_binary_genes.fa.newick", KindTree},
		{"report.pdf", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.name))
		})
	}

	assert.NoError(t, ValidateExtension("TEST.TXT"))
	assert.ErrorIs(t, ValidateExtension("test.pdf"), ErrUnsupportedFile)
}
