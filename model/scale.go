package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler 按列标准化（均值 0、总体标准差 1），常数列的缩放系数为 1。
type Scaler struct {
	Mean  []float64
	Scale []float64
}

func fitScaler(x [][]float64) Scaler {
	p := len(x[0])
	s := Scaler{Mean: make([]float64, p), Scale: make([]float64, p)}
	col := make([]float64, len(x))
	for j := 0; j < p; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = 1
		if variance > 1e-24 {
			s.Scale[j] = math.Sqrt(variance)
		}
	}
	return s
}

func (s Scaler) transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out
}
