package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/persist"
	"github.com/rushteam/survkit/trainer"
)

func (c *cli) predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a passenger CSV with a saved artifact",
		Long: `Loads the artifact, rebuilds features with the encoding and imputation values
saved at training time and writes PassengerId,Survived rows. Use --output - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			st, err := s.Artifact.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			art, err := persist.New(st, persist.WithLogger(c.logger)).Load(cmd.Context(), s.Artifact.Name)
			if err != nil {
				return err
			}
			rows, err := feature.LoadPassengersFile(s.Data.Test)
			if err != nil {
				return err
			}
			preds, err := art.PredictPassengers(rows)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if s.Data.Output != "-" {
				f, err := os.Create(s.Data.Output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := trainer.WritePredictions(w, preds); err != nil {
				return err
			}
			c.logger.Info("predictions written",
				zap.String("artifact", s.Artifact.Name),
				zap.String("candidate", art.CandidateID),
				zap.Int("rows", len(preds)),
				zap.String("output", s.Data.Output),
			)
			return nil
		},
	}
	cmd.Flags().String("test", "", "passenger CSV to score")
	cmd.Flags().StringP("output", "o", "", "output CSV, - for stdout")
	addArtifactFlags(cmd)
	return cmd
}

func (c *cli) candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List candidate models and their grid sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			reg := candidate.Default()
			if s.Search.Candidates != "" {
				if reg, err = candidate.LoadRegistry(s.Search.Candidates); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFAMILY\tCOMBINATIONS\tAXES")
			for _, cand := range reg.All() {
				var axes []string
				for _, a := range cand.Axes() {
					axes = append(axes, fmt.Sprintf("%s%v", a.Name, a.Values))
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%v\n", cand.ID(), cand.Family(), cand.Combinations(), axes)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Families: %v\n", candidate.SupportedFamilies())
			return nil
		},
	}
	cmd.Flags().String("candidates", "", "candidate registry YAML (default: built-in five families)")
	return cmd
}
