package search

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"
)

// Trial 单个参数组合的交叉验证结果。
type Trial struct {
	Params Assignment
	Scores []float64 // 每折准确率，失败时为已完成的部分
	Mean   float64
	Std    float64 // 总体标准差
	Err    string  // 非空表示该组合失败被跳过
}

// Result 单个候选模型的搜索结果，生成后不再修改。
type Result struct {
	CandidateID string
	Family      string
	BestScore   float64 // 最佳组合的平均准确率
	BestStd     float64
	BestParams  Assignment
	Trials      []Trial // 与枚举顺序一致
	Failed      int     // 失败被跳过的组合数
}

// Report 一次搜索的完整报告。
type Report struct {
	Results   []Result // 与候选注册顺序一致
	Exhausted []string // 所有组合都失败的候选
	Elapsed   time.Duration
	Folds     int
}

// Ranked 返回按 BestScore 降序排列的结果（分数相同保持注册顺序）。
func (r *Report) Ranked() []Result {
	out := append([]Result(nil), r.Results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BestScore > out[j].BestScore
	})
	return out
}

// Lookup 按候选 ID 查找结果。
func (r *Report) Lookup(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.CandidateID == id {
			return res, true
		}
	}
	return Result{}, false
}

// Fits 返回本次搜索执行过的 fit/score 总次数上限（组合数 × 折数）。
func (r *Report) Fits() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Trials) * r.Folds
	}
	return n
}

// WriteTable 以表格形式输出结果（model / best_score / best_params），按注册顺序。
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tmodel\tbest_score\tbest_params")
	for i, res := range r.Results {
		fmt.Fprintf(tw, "%d\t%s\t%.6f\t%s\n", i, res.CandidateID, res.BestScore, res.BestParams)
	}
	return tw.Flush()
}

// FormatElapsed 输出 "Time taken: H hours M minutes and S seconds."，秒保留两位小数。
func FormatElapsed(d time.Duration) string {
	total := d.Seconds()
	hours := math.Floor(total / 3600)
	rest := total - hours*3600
	minutes := math.Floor(rest / 60)
	seconds := math.Round((rest-minutes*60)*100) / 100
	return fmt.Sprintf("Time taken: %d hours %d minutes and %s seconds.",
		int(hours), int(minutes), trimFloat(seconds))
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
