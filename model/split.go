package model

import "sort"

// presort 为每个参与切分的特征生成按特征值升序排列的行下标（稳定排序）。
// 未参与切分的特征对应 nil。节点分裂时用 partition 保持有序，
// 避免每个节点重新排序。
func presort(x [][]float64, rows []int, features []int, nFeatures int) [][]int {
	cols := make([][]int, nFeatures)
	for _, f := range features {
		col := append([]int(nil), rows...)
		sort.SliceStable(col, func(a, b int) bool {
			return x[col[a]][f] < x[col[b]][f]
		})
		cols[f] = col
	}
	return cols
}

// partition 按 goLeft（以行下标索引）把每个特征的有序行列表拆成左右两份，保持各自有序。
func partition(cols [][]int, goLeft []bool) (left, right [][]int) {
	left = make([][]int, len(cols))
	right = make([][]int, len(cols))
	for f, col := range cols {
		if col == nil {
			continue
		}
		l := make([]int, 0, len(col))
		r := make([]int, 0, len(col))
		for _, i := range col {
			if goLeft[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		left[f], right[f] = l, r
	}
	return left, right
}

// nodeRows 返回节点包含的行（取任一非空特征列表）。
func nodeRows(cols [][]int) []int {
	for _, col := range cols {
		if col != nil {
			return col
		}
	}
	return nil
}

// splitThreshold 取相邻两个不同取值的中点；浮点舍入导致中点等于右值时退回左值。
func splitThreshold(lo, hi float64) float64 {
	t := lo/2 + hi/2
	if t >= hi {
		t = lo
	}
	return t
}

// indices 返回 0..n-1。
func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
