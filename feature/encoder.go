package feature

import (
	"fmt"
	"sort"

	"github.com/rushteam/survkit/core"
)

// LabelEncoder Label 编码（标签编码）
// 将类别映射为整数（0, 1, 2, ...），类别按字典序排列后编号。
//
// 编码映射必须与模型一起保存：推理时用同一份映射编码新数据，
// 遇到训练时未见过的类别返回 EncodingError，而不是静默编码为 0。
type LabelEncoder struct {
	Classes map[string][]string `json:"classes"` // 每个特征名对应的有序类别列表，下标即编码
}

// FitLabelEncoder 根据每列出现过的取值构建编码器。
func FitLabelEncoder(values map[string][]string) *LabelEncoder {
	e := &LabelEncoder{Classes: make(map[string][]string, len(values))}
	for col, vals := range values {
		seen := make(map[string]struct{}, len(vals))
		uniq := make([]string, 0)
		for _, v := range vals {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			uniq = append(uniq, v)
		}
		sort.Strings(uniq)
		e.Classes[col] = uniq
	}
	return e
}

// Columns 返回已编码的列名（排序）。
func (e *LabelEncoder) Columns() []string {
	cols := make([]string, 0, len(e.Classes))
	for c := range e.Classes {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Encode 编码单个值（指定特征名）
func (e *LabelEncoder) Encode(key, value string) (int, error) {
	classes, ok := e.Classes[key]
	if !ok {
		return 0, core.NewDomainError(core.ModuleDataset, core.ErrorCodeEncoding,
			fmt.Sprintf("encoding: column %q has no mapping", key))
	}
	i := sort.SearchStrings(classes, value)
	if i < len(classes) && classes[i] == value {
		return i, nil
	}
	return 0, core.NewDomainError(core.ModuleDataset, core.ErrorCodeEncoding,
		fmt.Sprintf("encoding: column %q has unseen value %q (known: %v)", key, value, classes))
}

// Decode 将编码还原为类别
func (e *LabelEncoder) Decode(key string, code int) (string, error) {
	classes, ok := e.Classes[key]
	if !ok || code < 0 || code >= len(classes) {
		return "", core.NewDomainError(core.ModuleDataset, core.ErrorCodeEncoding,
			fmt.Sprintf("encoding: column %q has no class for code %d", key, code))
	}
	return classes[code], nil
}

// EncodeFeatures 编码特征字典（批量编码），任一值无法编码即返回错误
func (e *LabelEncoder) EncodeFeatures(features map[string]string) (map[string]float64, error) {
	encoded := make(map[string]float64, len(features))
	for k, v := range features {
		code, err := e.Encode(k, v)
		if err != nil {
			return nil, err
		}
		encoded[k] = float64(code)
	}
	return encoded, nil
}

// Clone 深拷贝编码器
func (e *LabelEncoder) Clone() *LabelEncoder {
	out := &LabelEncoder{Classes: make(map[string][]string, len(e.Classes))}
	for k, v := range e.Classes {
		out.Classes[k] = append([]string(nil), v...)
	}
	return out
}
