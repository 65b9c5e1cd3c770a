package booking

import (
	"errors"
	"time"
)

// ── 周期时间段 ──

var (
	ErrSlotTimeOrder = errors.New("结束时间必须晚于开始时间")
	ErrSlotDateOrder = errors.New("学期结束日期不能早于开始日期")
	ErrSlotWeekday   = errors.New("星期取值必须在 0-6 之间")
)

// Slot 冲突判定所需的预约快照：某教室在 [TermStart, TermEnd] 内
// 每逢 Weekday 的 [Start, End) 时段。
type Slot struct {
	ID          string
	ClassroomID string
	Weekday     time.Weekday
	TermStart   time.Time
	TermEnd     time.Time
	Start       TimeOfDay
	End         TimeOfDay
	Status      Status
}

// Validate 校验时间段自身的合法性
func (s Slot) Validate() error {
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return ErrSlotWeekday
	}
	if s.End <= s.Start {
		return ErrSlotTimeOrder
	}
	if Date(s.TermEnd).Before(Date(s.TermStart)) {
		return ErrSlotDateOrder
	}
	return nil
}

// Overlaps 仅比较几何位置：同教室、同星期、日期闭区间相交、时间半开区间相交。
// 首尾相接（一个的结束等于另一个的开始）不算重叠。
func (s Slot) Overlaps(o Slot) bool {
	if s.ClassroomID != o.ClassroomID || s.Weekday != o.Weekday {
		return false
	}
	if Date(s.TermStart).After(Date(o.TermEnd)) || Date(s.TermEnd).Before(Date(o.TermStart)) {
		return false
	}
	return s.Start < o.End && s.End > o.Start
}

// ── 冲突判定 ──

// ConflictChecker 基于内存快照的纯函数式冲突判定
type ConflictChecker interface {
	HasConflict(existing []Slot, candidate Slot, excludeID string) bool
	FindConflicts(existing []Slot, candidate Slot, excludeID string) []Slot
}

type weeklyChecker struct{}

// NewConflictChecker 返回默认的按周冲突判定器
func NewConflictChecker() ConflictChecker {
	return weeklyChecker{}
}

func (weeklyChecker) HasConflict(existing []Slot, candidate Slot, excludeID string) bool {
	return HasConflict(existing, candidate, excludeID)
}

func (weeklyChecker) FindConflicts(existing []Slot, candidate Slot, excludeID string) []Slot {
	return FindConflicts(existing, candidate, excludeID)
}

// HasConflict 判断 candidate 是否与 existing 中任一占用中的预约冲突。
// 跳过非占用状态、candidate 自身以及 excludeID 指定的预约。
func HasConflict(existing []Slot, candidate Slot, excludeID string) bool {
	for i := range existing {
		if conflicts(existing[i], candidate, excludeID) {
			return true
		}
	}
	return false
}

// FindConflicts 返回全部与 candidate 冲突的预约
func FindConflicts(existing []Slot, candidate Slot, excludeID string) []Slot {
	var out []Slot
	for i := range existing {
		if conflicts(existing[i], candidate, excludeID) {
			out = append(out, existing[i])
		}
	}
	return out
}

func conflicts(other, candidate Slot, excludeID string) bool {
	if !other.Status.Blocking() {
		return false
	}
	if other.ID != "" && (other.ID == candidate.ID || other.ID == excludeID) {
		return false
	}
	return candidate.Overlaps(other)
}
