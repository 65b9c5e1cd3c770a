package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"classroom-reservation/internal/booking"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验器注册自定义规则：
//   - hhmm: "HH:MM" 格式的时刻
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := booking.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
	})
}
