package core

// TrainingConfig 是训练流程相关的配置接口，用于提供默认值。
type TrainingConfig interface {
	// DefaultSearchFolds 返回超参搜索的交叉验证折数
	DefaultSearchFolds() int

	// DefaultFinalFolds 返回最终训练的轮转折数
	DefaultFinalFolds() int

	// DefaultSeed 返回随机模型的默认种子
	DefaultSeed() int64

	// DefaultArtifactName 返回默认的模型产物名称
	DefaultArtifactName() string
}

// DefaultTrainingConfig 是默认的训练配置实现。
type DefaultTrainingConfig struct{}

func (c *DefaultTrainingConfig) DefaultSearchFolds() int {
	return 5
}

func (c *DefaultTrainingConfig) DefaultFinalFolds() int {
	return 8
}

func (c *DefaultTrainingConfig) DefaultSeed() int64 {
	return 0
}

func (c *DefaultTrainingConfig) DefaultArtifactName() string {
	return "xgboost_titanic.gob"
}

// Defaults 是全局默认配置。
var Defaults TrainingConfig = &DefaultTrainingConfig{}
