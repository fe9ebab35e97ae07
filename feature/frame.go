package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rushteam/survkit/core"
)

// Frame 是原始 CSV 表：表头 + 字符串单元格，缺失值为空串。
// Frame 只做结构校验，不做类型转换。
type Frame struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ReadCSV 读取带表头的 CSV。
// 每一行的列数必须与表头一致，否则返回 DataShapeError。
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // 以表头列数为准
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape, "dataset: empty input, header missing")
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeDataShape, err, "dataset: read header")
	}

	f := &Frame{
		Header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		f.Header[i] = h
		if _, dup := f.index[h]; dup {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
				fmt.Sprintf("dataset: duplicate column %q", h))
		}
		f.index[h] = i
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeDataShape, err,
				"dataset: read row %d", len(f.Rows)+1)
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

// ReadCSVFile 从文件读取 CSV。
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// Col 返回列下标。
func (f *Frame) Col(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// Require 校验所有列都存在，缺失时返回 DataShapeError 并列出全部缺失列。
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := f.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
			fmt.Sprintf("dataset: missing columns %v", missing))
	}
	return nil
}

// Len 返回数据行数。
func (f *Frame) Len() int { return len(f.Rows) }
