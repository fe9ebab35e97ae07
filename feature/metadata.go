package feature

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/survkit/core"
)

// Metadata 特征元数据，随模型产物一起保存，也可以单独导出为 JSON（<artifact>.meta.json）。
//
// 推理方必须使用同一份编码映射、填充值和列顺序处理新数据，否则类别会被错误编码。
type Metadata struct {
	// FeatureColumns 特征列名列表（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// LabelColumn 标签列名
	LabelColumn string `json:"label_column"`
	// Encoding 每个类别列的有序类别列表，下标即编码
	Encoding map[string][]string `json:"encoding"`
	// Imputation 训练数据上计算的缺失值填充值
	Imputation Imputation `json:"imputation"`
	// CreatedAt 创建时间
	CreatedAt string `json:"created_at"`
}

// Validate 校验元数据与当前特征布局一致。
func (m Metadata) Validate() error {
	if len(m.FeatureColumns) != len(FeatureColumns) {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
			fmt.Sprintf("metadata: expected %d feature columns, got %d", len(FeatureColumns), len(m.FeatureColumns)))
	}
	for i, c := range FeatureColumns {
		if m.FeatureColumns[i] != c {
			return core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
				fmt.Sprintf("metadata: feature column %d is %q, expected %q", i, m.FeatureColumns[i], c))
		}
	}
	for _, c := range CategoricalColumns {
		if len(m.Encoding[c]) == 0 {
			return core.NewDomainError(core.ModuleDataset, core.ErrorCodeEncoding,
				fmt.Sprintf("metadata: no encoding for column %q", c))
		}
	}
	return nil
}

// MarshalIndent 以缩进 JSON 输出元数据。
func (m Metadata) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// LoadFeatureMetadata 从 JSON 文件加载特征元数据
//
// 用法：
//
//	meta, err := feature.LoadFeatureMetadata("artifacts/xgboost_titanic.gob.meta.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds, err := feature.Transform(rows, *meta)
func LoadFeatureMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取特征元数据文件失败: %w", err)
	}
	return ParseFeatureMetadata(data)
}

// ParseFeatureMetadata 解析 JSON 格式的特征元数据
func ParseFeatureMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("解析特征元数据失败: %w", err)
	}
	return &meta, nil
}
