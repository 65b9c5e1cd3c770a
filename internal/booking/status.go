package booking

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Status 预约状态（封闭枚举）
type Status string

const (
	StatusPending               Status = "Pending"
	StatusApproved              Status = "Approved"
	StatusRejected              Status = "Rejected"
	StatusModificationRequested Status = "ModificationRequested"
	StatusModificationPending   Status = "ModificationPending"
	StatusCancellationRequested Status = "CancellationRequested"
	StatusCancelled             Status = "Cancelled"
)

// ErrUnknownStatus 未知的状态值
var ErrUnknownStatus = errors.New("未知的预约状态")

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusModificationRequested,
	StatusModificationPending,
	StatusCancellationRequested,
	StatusCancelled,
}

// Statuses 返回全部合法状态（按声明顺序）
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus 将字符串解析为状态，未知值返回 ErrUnknownStatus
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid 是否为合法状态
func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Blocking 该状态的预约是否占用时间段。
// Rejected / CancellationRequested / Cancelled 不参与冲突判定。
func (s Status) Blocking() bool {
	switch s {
	case StatusRejected, StatusCancellationRequested, StatusCancelled:
		return false
	default:
		return true
	}
}

// Terminal 是否为终态
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

func (s Status) String() string { return string(s) }

// ── GORM Scanner / Valuer ──

// Scan 从数据库读取状态，拒绝未知值
func (s *Status) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrUnknownStatus)
	default:
		return fmt.Errorf("Status.Scan: unsupported type %T", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value 写入数据库
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
	return string(s), nil
}
