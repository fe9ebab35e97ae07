package feature

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/survkit/core"
)

// FeatureColumns 是准备后的特征列顺序。
// PassengerId/Name/Ticket/Cabin 被丢弃，SibSp/Parch 合并为 FamilySize。
var FeatureColumns = []string{ColPclass, ColSex, ColAge, ColFare, ColEmbarked, ColFamilySize}

// CategoricalColumns 是需要 Label 编码的列。
var CategoricalColumns = []string{ColSex, ColEmbarked}

// Imputation 记录缺失值的填充值，推理时复用。
type Imputation struct {
	Age      float64 `json:"age"`      // Age 中位数
	Fare     float64 `json:"fare"`     // Fare 中位数
	Embarked string  `json:"embarked"` // Embarked 众数
}

// Dataset 是准备完成的数值特征矩阵与目标向量。
// 生成后只读：搜索、训练等下游组件共享同一份 Dataset，任何组件都不得修改 X/Y。
type Dataset struct {
	Columns    []string
	X          *mat.Dense
	Y          []float64 // 无标签数据为 nil
	IDs        []int     // PassengerId，与 X 的行对齐
	Encoding   *LabelEncoder
	Imputation Imputation
}

// Rows 返回样本数。
func (d *Dataset) Rows() int {
	r, _ := d.X.Dims()
	return r
}

// Labeled 是否带有目标向量。
func (d *Dataset) Labeled() bool { return d.Y != nil }

// Column 返回某一特征列的拷贝。
func (d *Dataset) Column(name string) ([]float64, bool) {
	for j, c := range d.Columns {
		if c == name {
			return mat.Col(nil, j, d.X), true
		}
	}
	return nil, false
}

// Describe 计算每一特征列的统计信息。
func (d *Dataset) Describe() map[string]*FeatureStatistics {
	out := make(map[string]*FeatureStatistics, len(d.Columns))
	for j, c := range d.Columns {
		out[c] = ComputeStatistics(mat.Col(nil, j, d.X))
	}
	return out
}

// Metadata 返回推理时复现特征所需的全部信息（列顺序、编码映射、填充值）。
func (d *Dataset) Metadata() Metadata {
	return Metadata{
		FeatureColumns: append([]string(nil), d.Columns...),
		FeatureCount:   len(d.Columns),
		LabelColumn:    ColSurvived,
		Encoding:       d.Encoding.Clone().Classes,
		Imputation:     d.Imputation,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

type prepareOptions struct {
	unlabeled bool
}

// PrepareOption 配置 Prepare。
type PrepareOption func(*prepareOptions)

// WithUnlabeled 允许无标签数据（例如 test.csv），此时 Dataset.Y 为 nil。
func WithUnlabeled() PrepareOption {
	return func(o *prepareOptions) { o.unlabeled = true }
}

// Prepare 将原始乘客记录清洗为数值特征矩阵：
//  1. Age 缺失值填充为该批数据的中位数
//  2. Embarked 缺失值填充为众数（次数相同取最先出现的取值）
//  3. 丢弃 PassengerId/Name/Ticket/Cabin
//  4. FamilySize = SibSp + Parch 替换两列
//  5. Sex/Embarked 做 Label 编码，映射记录在 Dataset.Encoding
//
// rows 不会被修改。
func Prepare(rows []Passenger, opts ...PrepareOption) (*Dataset, error) {
	var o prepareOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(rows) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape, "dataset: no rows")
	}

	var ages, fares []float64
	var ports []string
	for _, p := range rows {
		if p.Age != nil {
			ages = append(ages, *p.Age)
		}
		if p.Fare != nil {
			fares = append(fares, *p.Fare)
		}
		if p.Embarked != "" {
			ports = append(ports, p.Embarked)
		}
	}

	var imp Imputation
	var ok bool
	if imp.Age, ok = Median(ages); !ok {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
			"dataset: column Age has no values to impute from")
	}
	if imp.Fare, ok = Median(fares); !ok {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
			"dataset: column Fare has no values to impute from")
	}
	if imp.Embarked, ok = Mode(ports); !ok {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
			"dataset: column Embarked has no values to impute from")
	}

	sexes := make([]string, len(rows))
	embarked := make([]string, len(rows))
	for i, p := range rows {
		sexes[i] = p.Sex
		embarked[i] = p.Embarked
		if embarked[i] == "" {
			embarked[i] = imp.Embarked
		}
	}
	enc := FitLabelEncoder(map[string][]string{
		ColSex:      sexes,
		ColEmbarked: embarked,
	})

	return build(rows, enc, imp, !o.unlabeled)
}

// Transform 用已保存的元数据（编码映射 + 填充值）处理新数据。
// 新数据中出现未见过的类别时返回 EncodingError；标签列全部存在时一并返回 Y。
func Transform(rows []Passenger, meta Metadata) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape, "dataset: no rows")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	enc := &LabelEncoder{Classes: meta.Encoding}
	ds, err := build(rows, enc, meta.Imputation, false)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func build(rows []Passenger, enc *LabelEncoder, imp Imputation, requireLabels bool) (*Dataset, error) {
	n := len(rows)
	x := mat.NewDense(n, len(FeatureColumns), nil)
	ids := make([]int, n)
	y := make([]float64, n)
	labeled := true

	for i, p := range rows {
		age := imp.Age
		if p.Age != nil {
			age = *p.Age
		}
		fare := imp.Fare
		if p.Fare != nil {
			fare = *p.Fare
		}
		port := p.Embarked
		if port == "" {
			port = imp.Embarked
		}
		if p.Sex == "" {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
				fmt.Sprintf("dataset: row %d (PassengerId %d) has no Sex", i, p.PassengerID))
		}
		sex, err := enc.Encode(ColSex, p.Sex)
		if err != nil {
			return nil, fmt.Errorf("row %d (PassengerId %d): %w", i, p.PassengerID, err)
		}
		emb, err := enc.Encode(ColEmbarked, port)
		if err != nil {
			return nil, fmt.Errorf("row %d (PassengerId %d): %w", i, p.PassengerID, err)
		}

		x.SetRow(i, []float64{
			float64(p.Pclass),
			float64(sex),
			age,
			fare,
			float64(emb),
			float64(p.FamilySize()),
		})
		ids[i] = p.PassengerID

		if p.Survived == nil {
			if requireLabels {
				return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
					fmt.Sprintf("dataset: row %d (PassengerId %d) has no Survived label", i, p.PassengerID))
			}
			labeled = false
			continue
		}
		y[i] = float64(*p.Survived)
	}
	if !labeled {
		y = nil
	}

	return &Dataset{
		Columns:    append([]string(nil), FeatureColumns...),
		X:          x,
		Y:          y,
		IDs:        ids,
		Encoding:   enc,
		Imputation: imp,
	}, nil
}
