package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/survkit/config"
	"github.com/rushteam/survkit/pipeline"
)

func (c *cli) trainCmd() *cobra.Command {
	var pipelineFile string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Search candidates, train the selected model and save the artifact",
		Long: `Runs the training pipeline:
  1. feature.prepare   load the training CSV, impute and encode
  2. search.grid       grid search every candidate with K-fold cross validation
  3. select.rule       pin the final candidate/params or pick one by CEL rule
  4. trainer.kfold     rotate through K folds and keep the last fit
  5. persist.artifact  save model and feature metadata

With --pipeline the node chain is read from a pipeline YAML file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *pipeline.Config
			if pipelineFile != "" {
				var err error
				if cfg, err = pipeline.LoadFromYAML(pipelineFile); err != nil {
					return err
				}
			} else {
				s, err := c.settings(cmd)
				if err != nil {
					return err
				}
				cfg = s.Pipeline()
			}
			return c.run(cmd, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&pipelineFile, "pipeline", "", "pipeline YAML file, overrides the settings-based node chain")
	addDataFlags(cmd)
	addSearchFlags(cmd)
	f.String("candidate", "", "final candidate id")
	f.String("select", "", "CEL rule picking the final candidate from search results, e.g. 'result.std < 0.05'")
	f.Int("folds", 0, "final training folds")
	f.Int64("seed", 0, "seed for randomized models")
	addArtifactFlags(cmd)
	f.Bool("sidecar", false, "also write <artifact>.meta.json")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Grid search the candidates and print the results table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			s.Search.Enabled = true
			full := s.Pipeline()
			cfg := &pipeline.Config{}
			cfg.Pipeline.Name = "survkit.search"
			for _, n := range full.Pipeline.Nodes {
				if n.Type == "feature.prepare" || n.Type == "search.grid" {
					cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, n)
				}
			}
			return c.run(cmd, cfg)
		},
	}
	addDataFlags(cmd)
	addSearchFlags(cmd)
	return cmd
}

// run 构建并执行流水线，SIGINT/SIGTERM 取消正在进行的搜索或训练。
func (c *cli) run(cmd *cobra.Command, cfg *pipeline.Config) error {
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return err
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := pipeline.NewState(c.logger, cmd.OutOrStdout())
	if err := p.Run(ctx, st); err != nil {
		return err
	}
	if st.ArtifactName != "" {
		c.logger.Info("artifact saved", zap.String("name", st.ArtifactName))
	}
	return nil
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("train", "", "training CSV")
}

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("search", true, "run the grid search before training")
	f.Int("search-folds", 0, "cross-validation folds for the search")
	f.Int("workers", 0, "concurrent combinations (0 = number of CPUs)")
	f.String("candidates", "", "candidate registry YAML (default: built-in five families)")
	f.StringSlice("only", nil, "search only these candidate ids")
	f.Bool("allow-exhausted", false, "continue when every combination of a candidate fails")
}

func addArtifactFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("artifact", "", "artifact name")
	f.String("store", "", "artifact store: file, redis or memory")
	f.String("dir", "", "artifact directory for the file store")
	f.String("redis-addr", "", "redis address for the redis store")
}
