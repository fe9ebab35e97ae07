// Command survkit 在 Titanic 乘客数据上搜索并训练生存预测模型。
//
//	survkit train --train train.csv
//	survkit search --only svm,xgboost
//	survkit predict --test test.csv --output predictions.csv
//	survkit candidates
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rushteam/survkit/config"
	_ "github.com/rushteam/survkit/config/builders"
)

// flagKeys 命令行 flag 与配置键的对应关系，只有命令上实际定义的 flag 会被绑定。
var flagKeys = map[string]string{
	"train":           "data.train",
	"test":            "data.test",
	"output":          "data.output",
	"search":          "search.enabled",
	"search-folds":    "search.folds",
	"workers":         "search.workers",
	"candidates":      "search.candidates",
	"only":            "search.only",
	"allow-exhausted": "search.allow_exhausted",
	"candidate":       "final.candidate",
	"select":          "final.select",
	"folds":           "final.folds",
	"seed":            "final.seed",
	"artifact":        "artifact.name",
	"store":           "artifact.store",
	"dir":             "artifact.dir",
	"sidecar":         "artifact.sidecar",
	"redis-addr":      "artifact.redis.addr",
}

// cli 保存一次命令执行的全局状态。
type cli struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "survkit",
		Short: "Titanic survival model selection and training",
		Long: `survkit prepares the Titanic passenger table, grid-searches five classifier
families with K-fold cross validation, trains the chosen model and saves it
together with the feature encoding needed to score new passengers.

Settings come from flags, SURVKIT_* environment variables, the --config file
and built-in defaults, in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if c.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "settings file (yaml/json/toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.trainCmd(),
		c.searchCmd(),
		c.predictCmd(),
		c.candidatesCmd(),
	)
	return root
}

// settings 合并默认值、配置文件、环境变量与当前命令的 flag。
func (c *cli) settings(cmd *cobra.Command) (*config.Settings, error) {
	v, err := config.NewViper(c.cfgFile)
	if err != nil {
		return nil, err
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return config.Load(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
