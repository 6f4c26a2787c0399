package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/spf13/cobra"
)

func evaluateCmd() *cobra.Command {
	var (
		scenarios []string
		k         int
		preset    string
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure the distance metric as a k-NN classifier over category labels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			weights := e.weights.Active()
			if preset != "" {
				p, err := service.Preset(preset)
				if err != nil {
					return err
				}
				weights = p.Weights
			}
			if !cmd.Flags().Changed("seed") {
				seed = e.cfg.Evaluation.Seed
			}
			if k == 0 {
				k = e.cfg.Evaluation.DefaultK
			}

			snap := e.catalog.Catalog().Snapshot()
			evaluator := service.NewEvaluator(e.cfg.Recommend.Workers, seed, e.logger)
			out := cmd.OutOrStdout()
			for _, name := range scenarios {
				ratio, err := model.ParseSplitRatio(name)
				if err != nil {
					return err
				}
				_, test, err := evaluator.Split(snap.Phones, ratio)
				if err != nil {
					return err
				}
				bar := newProgressBar(cmd.ErrOrStderr(), len(test), "Evaluating "+ratio.Name())
				res, err := evaluator.WithProgress(func(n int) { _ = bar.Add(n) }).
					Evaluate(cmd.Context(), snap, ratio, k, weights)
				if err != nil {
					return err
				}
				_ = bar.Finish()
				printResult(out, res)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&scenarios, "scenario", []string{"70-30", "80-20"}, "train-test split scenarios")
	cmd.Flags().IntVar(&k, "k", 0, "neighbours per vote (default from EVAL_DEFAULT_K)")
	cmd.Flags().StringVar(&preset, "preset", "", "evaluate with a weight preset instead of the defaults")
	cmd.Flags().Int64Var(&seed, "seed", service.DefaultSplitSeed, "shuffle seed for the split")
	return cmd
}

func printResult(out io.Writer, res *model.EvaluationResult) {
	fmt.Fprintf(out, "\nScenario %s  train=%d test=%d k=%d catalog=v%d\n",
		res.Scenario, res.TrainSize, res.TestSize, res.K, res.CatalogVersion)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "actual \\ predicted")
	for _, l := range res.Labels {
		fmt.Fprintf(w, "\t%s", l)
	}
	fmt.Fprintln(w)
	for i, row := range res.ConfusionMatrix {
		fmt.Fprint(w, res.Labels[i])
		for _, n := range row {
			fmt.Fprintf(w, "\t%d", n)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CLASS\tPRECISION\tRECALL\tF1\tSUPPORT")
	for _, c := range res.PerClass {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%d\n", c.Category, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(w, "weighted\t%.3f\t%.3f\t%.3f\t%d\n", res.Weighted.Precision, res.Weighted.Recall, res.Weighted.F1, res.TestSize)
	_ = w.Flush()
	fmt.Fprintf(out, "accuracy %.3f\n", res.Accuracy)
}
