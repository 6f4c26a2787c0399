package main

import (
	"fmt"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/spf13/cobra"
)

func weightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect and validate attribute weight vectors",
	}
	cmd.AddCommand(weightsValidateCmd(), weightsPresetsCmd())
	return cmd
}

func weightsValidateCmd() *cobra.Command {
	defaults := model.DefaultWeights()
	values := make(map[string]*float64, len(model.Attributes))
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a weight vector given per attribute",
		Example: "  phonecbr weights validate --price 30 --ram 15 --storage 10 --battery 15 \\\n" +
			"    --camera 10 --screen 5 --rating 5 --brand 5 --os 5",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := make(map[string]float64, len(values))
			for key, v := range values {
				raw[key] = *v
			}
			w, err := service.WeightsFromMap(raw)
			if err != nil {
				return err
			}
			v := service.ValidateWeights(w)
			out := cmd.OutOrStdout()
			if !v.Valid {
				fmt.Fprintf(out, "invalid (total %g): %s\n", v.Total, v.Reason)
				return fmt.Errorf("weight vector rejected")
			}
			fmt.Fprintf(out, "valid (total %g)\n", v.Total)
			return nil
		},
	}
	for _, a := range model.Attributes {
		values[a.String()] = cmd.Flags().Float64(a.String(), defaults.Get(a), a.Label()+" weight")
	}
	return cmd
}

func weightsPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the weight presets",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, p := range service.Presets() {
				fmt.Fprintf(out, "%-16s %s\n", p.Name, p.Description)
				for _, a := range model.Attributes {
					fmt.Fprintf(out, "  %-8s %5.1f\n", a, p.Weights.Get(a))
				}
			}
		},
	}
}
