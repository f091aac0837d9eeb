package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/roary"
	"go.uber.org/zap"
)

var rarefyFlags struct {
	seed       int64
	expected   bool
	noProgress bool
}

var rarefyCmd = &cobra.Command{
	Use:   "rarefy <gene_presence_absence>",
	Short: "Estimate the gene accumulation curve",
	Long: `Shuffle the genome order of a presence/absence table many times and report,
for every number of genomes, the mean and standard deviation of distinct genes
seen. Output is tab separated: genomes, mean_genes, std_dev (and expected with
--expected).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seedSet := cmd.Flags().Changed("seed")
		return runRarefy(cmd, args[0], seedSet)
	},
}

func init() {
	rootCmd.AddCommand(rarefyCmd)

	rarefyCmd.Flags().IntP("permutations", "p", model.DefaultPermutations, "number of random genome orders")
	rarefyCmd.Flags().IntP("workers", "w", 4, "parallel workers")
	rarefyCmd.Flags().Int64Var(&rarefyFlags.seed, "seed", 0, "random seed (default random, printed to stderr)")
	rarefyCmd.Flags().BoolVar(&rarefyFlags.expected, "expected", false, "add the exact expected curve as a fourth column")
	rarefyCmd.Flags().BoolVar(&rarefyFlags.noProgress, "no-progress", false, "do not draw a progress bar")

	v.BindPFlag("analysis.permutations", rarefyCmd.Flags().Lookup("permutations"))
	v.BindPFlag("analysis.workers", rarefyCmd.Flags().Lookup("workers"))
}

func runRarefy(cmd *cobra.Command, path string, seedSet bool) error {

	m, err := roary.ReadMatrixFile(path)
	if err != nil {
		return err
	}

	seed := rarefyFlags.seed
	if !seedSet {
		seed = rand.Int64()
	}
	perms := cfg.Analysis.Permutations
	fmt.Fprintf(cmd.ErrOrStderr(), "seed: %d\n", seed)

	opts := []model.RarefyOption{
		model.WithSeed(seed),
		model.WithWorkers(cfg.Analysis.Workers),
	}

	if !rarefyFlags.noProgress {
		bar := progressbar.NewOptions(perms,
			progressbar.OptionSetDescription("[cyan]Rarefying...[reset]"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
			progressbar.OptionSetTheme(progressbar.Theme{Saucer: "[green]=[reset]", SaucerHead: "[green]>[reset]", SaucerPadding: " ", BarStart: "[", BarEnd: "]"}))
		opts = append(opts, model.WithProgress(func(done, total int) {
			bar.Set(done)
		}))
	}

	ctx := middle.WithLogger(cmd.Context(), logger.L())
	stop := middle.MeasurePerformance(ctx, "rarefaction", middle.SlowRarefaction)
	points, err := model.Rarefy(ctx, m, perms, opts...)
	elapsed := stop()
	if err != nil {
		return err
	}
	logger.Debug("Rarefaction finished",
		zap.Int("permutations", perms),
		zap.Int("genomes", m.NumGenomes()),
		zap.Duration("elapsed", elapsed))

	var expected []model.RarefactionPoint
	if rarefyFlags.expected {
		if expected, err = model.ExpectedCurve(m); err != nil {
			return err
		}
	}

	return writeCurve(cmd.OutOrStdout(), points, expected)
}

func writeCurve(w io.Writer, points, expected []model.RarefactionPoint) error {
	header := "genomes\tmean_genes\tstd_dev"
	if expected != nil {
		header += "\texpected"
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for i, p := range points {
		line := fmt.Sprintf("%d\t%.4f\t%.4f", p.Genomes, p.MeanGenes, p.StdDev)
		if expected != nil {
			line += fmt.Sprintf("\t%.4f", expected[i].MeanGenes)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
