package utils

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func InitValidator() {
	Validate = validator.New()
	Validate.RegisterValidation("pintag", ValidatePinTagRule)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("pintag", ValidatePinTagRule)
	}
}

func ValidatePinTagRule(fl validator.FieldLevel) bool {
	return ValidatePinTag(fl.Field().String())
}

// ValidatePinTag accepts tags that are non-blank single-line labels.
// Commas are rejected because the export pipeline joins tags with them.
func ValidatePinTag(tag string) bool {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return false
	}
	return !strings.ContainsAny(tag, ",\n")
}
