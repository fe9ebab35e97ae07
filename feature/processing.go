package feature

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FeatureStatistics 单列数值特征的汇总统计。
type FeatureStatistics struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P25    float64
	P75    float64
}

// ComputeStatistics 计算特征统计信息
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}

	// 复制并排序
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Count: len(values),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	stats.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		stats.Std = stat.StdDev(values, nil) // 样本标准差（n-1）
	}

	// 计算分位数
	stats.Median = computePercentile(sorted, 0.5)
	stats.P25 = computePercentile(sorted, 0.25)
	stats.P75 = computePercentile(sorted, 0.75)

	return stats
}

// Median 返回中位数；偶数个样本时取中间两个数的均值。
// values 为空时 ok 为 false。
func Median(values []float64) (median float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return computePercentile(sorted, 0.5), true
}

// Mode 返回出现次数最多的取值；次数相同时取最先出现的取值。
// values 为空时 ok 为 false。
func Mode(values []string) (mode string, ok bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	order := make([]string, 0)
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

// computePercentile 线性插值分位数，sorted 必须已升序排列
func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
