package booking

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// ErrInvalidTimeOfDay 时间格式错误
var ErrInvalidTimeOfDay = errors.New("时间格式应为 HH:MM")

// TimeOfDay 一天内的时刻，单位分钟（0 ~ 1439）
type TimeOfDay int

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"（秒被舍弃）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// NewTimeOfDay 由时、分构造
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String 格式化为 "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On 将时刻落到指定日期上
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}

// Scan 数据库以 varchar(5) 保存
func (t *TimeOfDay) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	default:
		return fmt.Errorf("TimeOfDay.Scan: unsupported type %T", src)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value 写入 "HH:MM"
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// ── 日期 ──

// Date 去掉时分秒，统一为 UTC 零点（不做时区换算）
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 "2006-01-02"
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化为 "2006-01-02"
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
