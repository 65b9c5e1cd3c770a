package booking

import (
	"iter"
	"slices"
	"time"
)

// Occurrence 一次具体上课日期，附带是否为节假日
type Occurrence struct {
	Date    time.Time
	Holiday bool
}

// HolidaySet 节假日日期集合
type HolidaySet map[time.Time]struct{}

// NewHolidaySet 由日期列表构造，日期统一去掉时分秒
func NewHolidaySet(dates []time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[Date(d)] = struct{}{}
	}
	return set
}

// Contains 指定日期是否为节假日
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h[Date(t)]
	return ok
}

// Annotate 为每次上课日期标记节假日。仅提示，不影响冲突判定。
func Annotate(dates iter.Seq[time.Time], holidays HolidaySet) []Occurrence {
	var out []Occurrence
	for d := range dates {
		out = append(out, Occurrence{Date: d, Holiday: holidays.Contains(d)})
	}
	return out
}

// HolidaysOnWeekday 返回 [start, end] 内星期为 weekday 的节假日（升序去重）
func HolidaysOnWeekday(holidays []time.Time, weekday time.Weekday, start, end time.Time) []time.Time {
	first, last := Date(start), Date(end)
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, h := range holidays {
		d := Date(h)
		if d.Weekday() != weekday || d.Before(first) || d.After(last) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}
