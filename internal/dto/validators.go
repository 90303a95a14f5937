package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prairielimo/lms_backend/internal/core/domain"
)

// RegisterValidations installs custom binding validations on gin's validator
// engine. Call once at startup before serving requests.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("eventcode", func(fl validator.FieldLevel) bool {
		return domain.KnownEventCode(domain.EventCode(fl.Field().String()))
	})
}
