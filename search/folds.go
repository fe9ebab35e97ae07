package search

import (
	"fmt"
	"sort"

	"github.com/rushteam/survkit/core"
)

// Fold 是一次划分：Train/Test 为行下标，均升序。
type Fold struct {
	Train []int
	Test  []int
}

// KFold 不打乱顺序地把 n 行切成 k 段连续的测试集，前 n%k 段各多一行。
func KFold(n, k int) ([]Fold, error) {
	if err := checkSplits(n, k); err != nil {
		return nil, err
	}
	folds := make([]Fold, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		test := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				test = append(test, i)
			} else {
				train = append(train, i)
			}
		}
		folds[f] = Fold{Train: train, Test: test}
		start += size
	}
	return folds, nil
}

// StratifiedKFold 不打乱顺序的分层 K 折：各类别按出现顺序被切成连续块分配到各折，
// 每折的类别比例与整体接近。每折每类的样本数由按类别排序后的标签以步长 k 轮流分配得到。
func StratifiedKFold(y []float64, k int) ([]Fold, error) {
	n := len(y)
	if err := checkSplits(n, k); err != nil {
		return nil, err
	}

	// 类别按首次出现顺序编号
	code := make(map[float64]int)
	enc := make([]int, n)
	for i, v := range y {
		c, ok := code[v]
		if !ok {
			c = len(code)
			code[v] = c
		}
		enc[i] = c
	}
	nClasses := len(code)

	sorted := append([]int(nil), enc...)
	sort.Ints(sorted)
	alloc := make([][]int, k)
	for f := range alloc {
		alloc[f] = make([]int, nClasses)
		for i := f; i < n; i += k {
			alloc[f][sorted[i]]++
		}
	}

	testFold := make([]int, n)
	for c := 0; c < nClasses; c++ {
		f, used := 0, 0
		for i, e := range enc {
			if e != c {
				continue
			}
			for used >= alloc[f][c] {
				f++
				used = 0
			}
			testFold[i] = f
			used++
		}
	}

	folds := make([]Fold, k)
	for i, f := range testFold {
		folds[f].Test = append(folds[f].Test, i)
		for g := range folds {
			if g != f {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds, nil
}

func checkSplits(n, k int) error {
	if k < 2 {
		return core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
			fmt.Sprintf("folds: need at least 2 splits, got %d", k))
	}
	if n < k {
		return core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
			fmt.Sprintf("folds: cannot split %d rows into %d folds", n, k))
	}
	return nil
}
