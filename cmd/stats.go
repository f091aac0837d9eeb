package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/roary"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var statsFlags struct {
	pattern string
	format  string
	genes   bool
}

var statsCmd = &cobra.Command{
	Use:   "stats <gene_presence_absence>",
	Short: "Classify the genes of a presence/absence table",
	Long: `Count core, soft-core, shell and cloud genes of a Roary
gene_presence_absence.csv or .Rtab file (optionally gzipped). With --pattern the
frequency table of rare, common or variable genes is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Float64("core", model.DefaultCoreThreshold, "core threshold, fraction of genomes")
	statsCmd.Flags().Float64("softcore", model.DefaultSoftcoreThreshold, "soft-core threshold, fraction of genomes")
	statsCmd.Flags().Float64("shell", model.DefaultShellThreshold, "shell threshold, fraction of genomes")
	statsCmd.Flags().StringVar(&statsFlags.pattern, "pattern", "", "print genes matching rare, common, variable or all")
	statsCmd.Flags().BoolVar(&statsFlags.genes, "genes", false, "print the category of every gene")
	statsCmd.Flags().StringVarP(&statsFlags.format, "format", "f", formatTable, "output format: table, json or yaml")

	v.BindPFlag("analysis.core_threshold", statsCmd.Flags().Lookup("core"))
	v.BindPFlag("analysis.softcore_threshold", statsCmd.Flags().Lookup("softcore"))
	v.BindPFlag("analysis.shell_threshold", statsCmd.Flags().Lookup("shell"))
}

func runStats(w io.Writer, path string) error {

	m, err := roary.ReadMatrixFile(path)
	if err != nil {
		return err
	}
	logger.Debug("Matrix loaded", zap.String("path", path), zap.Int("genes", m.NumGenes()), zap.Int("genomes", m.NumGenomes()))

	switch {
	case statsFlags.pattern != "":
		p, err := model.ParsePattern(statsFlags.pattern)
		if err != nil {
			return err
		}
		freqs, err := model.AnalyzePattern(m, p)
		if err != nil {
			return err
		}
		return printFrequencies(w, freqs)

	case statsFlags.genes:
		genes, err := model.CategorizeGenes(m, cfg.Analysis.Thresholds)
		if err != nil {
			return err
		}
		return printGenes(w, genes)
	}

	dist, err := model.Classify(m, cfg.Analysis.Thresholds)
	if err != nil {
		return err
	}
	return printDistribution(w, m, dist)
}

// encode writes v as json or yaml. It reports false for the table format.
func encode(w io.Writer, v any) (bool, error) {
	switch statsFlags.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case formatTable:
		return false, nil
	default:
		return true, fmt.Errorf("unknown format %q", statsFlags.format)
	}
}

type distributionOutput struct {
	Genomes        int     `json:"genomes" yaml:"genomes"`
	TotalGenes     int     `json:"total_genes" yaml:"total_genes"`
	CoreGenes      int     `json:"core_genes" yaml:"core_genes"`
	SoftcoreGenes  int     `json:"softcore_genes" yaml:"softcore_genes"`
	ShellGenes     int     `json:"shell_genes" yaml:"shell_genes"`
	CloudGenes     int     `json:"cloud_genes" yaml:"cloud_genes"`
	GenesPerGenome float64 `json:"genes_per_genome" yaml:"genes_per_genome"`
}

func printDistribution(w io.Writer, m *model.Matrix, dist *model.GeneDistribution) error {

	if done, err := encode(w, distributionOutput{
		Genomes:        m.NumGenomes(),
		TotalGenes:     dist.TotalGenes,
		CoreGenes:      dist.CoreGenes,
		SoftcoreGenes:  dist.SoftcoreGenes,
		ShellGenes:     dist.ShellGenes,
		CloudGenes:     dist.CloudGenes,
		GenesPerGenome: dist.GenesPerGenome,
	}); done {
		return err
	}

	t := cfg.Analysis.Thresholds
	bounds := map[model.GeneCategory]string{
		model.CategoryCore:     fmt.Sprintf("(%g%% <= strains <= 100%%)", 100*t.Core),
		model.CategorySoftcore: fmt.Sprintf("(%g%% <= strains < %g%%)", 100*t.Softcore, 100*t.Core),
		model.CategoryShell:    fmt.Sprintf("(%g%% <= strains < %g%%)", 100*t.Shell, 100*t.Softcore),
		model.CategoryCloud:    fmt.Sprintf("(0%% <= strains < %g%%)", 100*t.Shell),
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintf(tw, "Genomes\t\t%d\n", m.NumGenomes())
	for _, c := range model.AllCategories {
		fmt.Fprintf(tw, "%s genes\t%s\t%d\t%.2f%%\n", c.Label(), bounds[c], dist.Count(c), dist.Percent(c))
	}
	fmt.Fprintf(tw, "Total genes\t(0%% <= strains <= 100%%)\t%d\n", dist.TotalGenes)
	fmt.Fprintf(tw, "Genes per genome\t\t%.2f\n", dist.GenesPerGenome)
	return tw.Flush()
}

func printFrequencies(w io.Writer, freqs []model.GeneFrequency) error {
	if done, err := encode(w, freqs); done {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintln(tw, "Gene\tGenomes\tPercentage")
	for _, f := range freqs {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", f.GeneID, f.PresentInGenomes, f.Percentage)
	}
	return tw.Flush()
}

func printGenes(w io.Writer, genes []model.CategorizedGene) error {
	if done, err := encode(w, genes); done {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintln(tw, "Gene\tGenomes\tCategory")
	for _, g := range genes {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", g.GeneID, g.PresentInGenomes, g.Category)
	}
	return tw.Flush()
}
