package handler

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"box-schedule/backend/pkg/clock"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义 binding 标签
//   - yyyymmdd: 日历日期 YYYY-MM-DD
//   - yyyymm:   月份 YYYY-MM
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("yyyymmdd", layoutValidator(clock.DateLayout))
		_ = v.RegisterValidation("yyyymm", layoutValidator(clock.MonthLayout))
	})
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			// 必填由 required 负责
			return true
		}
		_, err := time.Parse(layout, s)
		return err == nil
	}
}
