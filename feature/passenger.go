package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rushteam/survkit/core"
)

// 原始数据列名（与 Kaggle Titanic 表头一致）
const (
	ColPassengerID = "PassengerId"
	ColSurvived    = "Survived"
	ColPclass      = "Pclass"
	ColName        = "Name"
	ColSex         = "Sex"
	ColAge         = "Age"
	ColSibSp       = "SibSp"
	ColParch       = "Parch"
	ColTicket      = "Ticket"
	ColFare        = "Fare"
	ColCabin       = "Cabin"
	ColEmbarked    = "Embarked"

	// ColFamilySize 是派生列：SibSp + Parch
	ColFamilySize = "FamilySize"
)

// RequiredColumns 是训练/预测数据都必须包含的列；Survived 仅训练数据需要。
var RequiredColumns = []string{
	ColPassengerID, ColPclass, ColName, ColSex, ColAge,
	ColSibSp, ColParch, ColTicket, ColFare, ColCabin, ColEmbarked,
}

// Passenger 是一条原始乘客记录。
// 可能缺失的字段使用指针（Age/Fare/Survived）或空串（Embarked）表示缺失。
type Passenger struct {
	PassengerID int
	Survived    *int
	Pclass      int
	Name        string
	Sex         string
	Age         *float64
	SibSp       int
	Parch       int
	Ticket      string
	Fare        *float64
	Cabin       string
	Embarked    string
}

// FamilySize 返回同行家庭成员数（兄弟姐妹/配偶 + 父母/子女）。
func (p Passenger) FamilySize() int {
	return p.SibSp + p.Parch
}

// LoadPassengers 将 Frame 转换为乘客记录。
// 缺少必需列、或数值列无法解析时返回 DataShapeError（错误信息包含行号和列名）。
func LoadPassengers(f *Frame) ([]Passenger, error) {
	if err := f.Require(RequiredColumns...); err != nil {
		return nil, err
	}
	col := func(name string) int {
		i, _ := f.Col(name)
		return i
	}
	survivedIdx, hasLabel := f.Col(ColSurvived)

	out := make([]Passenger, 0, f.Len())
	for i, rec := range f.Rows {
		line := i + 2 // 1-based，且跳过表头
		cell := func(name string) string { return strings.TrimSpace(rec[col(name)]) }

		var p Passenger
		var err error
		if p.PassengerID, err = parseInt(cell(ColPassengerID), ColPassengerID, line); err != nil {
			return nil, err
		}
		if p.Pclass, err = parseInt(cell(ColPclass), ColPclass, line); err != nil {
			return nil, err
		}
		if p.Pclass < 1 || p.Pclass > 3 {
			return nil, shapeErr(line, ColPclass, "class tier %d out of range 1..3", p.Pclass)
		}
		if p.SibSp, err = parseInt(cell(ColSibSp), ColSibSp, line); err != nil {
			return nil, err
		}
		if p.Parch, err = parseInt(cell(ColParch), ColParch, line); err != nil {
			return nil, err
		}
		if p.SibSp < 0 || p.Parch < 0 {
			return nil, shapeErr(line, ColSibSp, "negative family count")
		}
		if p.Age, err = parseOptionalFloat(cell(ColAge), ColAge, line); err != nil {
			return nil, err
		}
		if p.Fare, err = parseOptionalFloat(cell(ColFare), ColFare, line); err != nil {
			return nil, err
		}
		if hasLabel {
			if s := strings.TrimSpace(rec[survivedIdx]); s != "" {
				v, err := parseInt(s, ColSurvived, line)
				if err != nil {
					return nil, err
				}
				if v != 0 && v != 1 {
					return nil, shapeErr(line, ColSurvived, "label %d is not 0/1", v)
				}
				p.Survived = &v
			}
		}

		p.Name = cell(ColName)
		p.Sex = cell(ColSex)
		if p.Sex == "" {
			return nil, shapeErr(line, ColSex, "empty value")
		}
		p.Ticket = cell(ColTicket)
		p.Cabin = cell(ColCabin)
		p.Embarked = cell(ColEmbarked)
		out = append(out, p)
	}
	return out, nil
}

// LoadPassengersFile 读取 CSV 文件并转换为乘客记录。
func LoadPassengersFile(path string) ([]Passenger, error) {
	f, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	return LoadPassengers(f)
}

// MissingCounts 统计各可缺失列的缺失数量（对应 isnull().sum()）。
func MissingCounts(rows []Passenger) map[string]int {
	counts := map[string]int{ColAge: 0, ColFare: 0, ColEmbarked: 0, ColCabin: 0, ColSurvived: 0}
	for _, p := range rows {
		if p.Age == nil {
			counts[ColAge]++
		}
		if p.Fare == nil {
			counts[ColFare]++
		}
		if p.Embarked == "" {
			counts[ColEmbarked]++
		}
		if p.Cabin == "" {
			counts[ColCabin]++
		}
		if p.Survived == nil {
			counts[ColSurvived]++
		}
	}
	return counts
}

func parseInt(s, column string, line int) (int, error) {
	if s == "" {
		return 0, shapeErr(line, column, "empty value")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// 部分导出工具会把整数写成 "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, shapeErr(line, column, "invalid integer %q", s)
		}
		v = int(f)
	}
	return v, nil
}

func parseOptionalFloat(s, column string, line int) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, shapeErr(line, column, "invalid number %q", s)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

func shapeErr(line int, column, format string, args ...any) error {
	return core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataShape,
		fmt.Sprintf("dataset: line %d column %s: %s", line, column, fmt.Sprintf(format, args...)))
}
