package validators

import (
	"time"

	"billed-backend/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the date format produced by the bill form's date picker
const DateLayout = "2006-01-02"

// RegisterRules adds the bill-specific rules to v
func RegisterRules(v *validator.Validate) error {
	if err := v.RegisterValidation("billdate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	return v.RegisterValidation("billstatus", func(fl validator.FieldLevel) bool {
		return models.BillStatus(fl.Field().String()).Valid()
	})
}

// RegisterGinRules installs the bill rules into gin's binding validator
func RegisterGinRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterRules(v)
}
