package search

// Enumerate 返回各维度取值的笛卡尔积，最后一个维度变化最快。
// 没有维度时返回一个空组合（即只用默认参数评估一次）；
// 任一维度没有取值时返回 nil。
func Enumerate(axes []Axis) []Assignment {
	total := Count(axes)
	if total == 0 {
		return nil
	}
	out := make([]Assignment, 0, total)
	idx := make([]int, len(axes))
	for {
		a := make(Assignment, len(axes))
		for i, ax := range axes {
			a[i] = Param{Name: ax.Name, Value: ax.Values[idx[i]]}
		}
		out = append(out, a)

		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i].Values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Count 返回组合总数 ∏|values|。
func Count(axes []Axis) int {
	n := 1
	for _, ax := range axes {
		n *= len(ax.Values)
	}
	return n
}
