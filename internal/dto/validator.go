package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"student-records/backend/internal/gpa"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
// student_category: 取值必须能被 gpa.ParseCategory 解析
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	return v.RegisterValidation("student_category", func(fl validator.FieldLevel) bool {
		_, err := gpa.ParseCategory(fl.Field().String())
		return err == nil
	})
}
