package service

import (
	"errors"
	"fmt"
	"strings"

	"classroom-reservation/internal/booking"
)

// ── 通用业务错误 ──

var (
	// ErrValidation 参数校验失败，具体字段见 ValidationError
	ErrValidation = errors.New("参数校验失败")
	// ErrExternalService 外部服务（节假日、邮件）异常，只记录日志，不向调用方暴露
	ErrExternalService = errors.New("外部服务异常")
)

// ValidationError 字段级校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError 与已有预约时间冲突
type ConflictError struct {
	Conflicts []booking.Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrReservationConflict.Error(), strings.Join(e.IDs(), ", "))
}

// Is 使 errors.Is(err, ErrReservationConflict) 成立
func (e *ConflictError) Is(target error) bool { return target == ErrReservationConflict }

// IDs 冲突预约 ID 列表
func (e *ConflictError) IDs() []string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.ID)
	}
	return ids
}

// ExternalServiceError 外部依赖调用失败
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s 调用失败: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrExternalService) 成立
func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }
