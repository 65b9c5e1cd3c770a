package booking

import (
	"iter"
	"slices"
	"time"
)

// Occurrences 按升序惰性产出 [start, end]（闭区间）内所有星期为 weekday 的日期。
// 返回的序列可重复遍历，每次从头开始。
func Occurrences(weekday time.Weekday, start, end time.Time) iter.Seq[time.Time] {
	first := Date(start)
	last := Date(end)
	return func(yield func(time.Time) bool) {
		if last.Before(first) {
			return
		}
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		for d := first.AddDate(0, 0, offset); !d.After(last); d = d.AddDate(0, 0, 7) {
			if !yield(d) {
				return
			}
		}
	}
}

// OccurrenceDates 将 Occurrences 收集为切片
func OccurrenceDates(weekday time.Weekday, start, end time.Time) []time.Time {
	return slices.Collect(Occurrences(weekday, start, end))
}

// CountOccurrences 统计次数，不分配切片
func CountOccurrences(weekday time.Weekday, start, end time.Time) int {
	n := 0
	for range Occurrences(weekday, start, end) {
		n++
	}
	return n
}
