// Package validator installs domain-specific validations on gin's binding
// engine so request structs can declare them in tags.
package validator

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/glucolog/glucolog-api/internal/model"
)

// RegisterCustom adds the dose and calendar-date validations. Call once at
// startup, before the first request is bound.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine")
	}

	if err := v.RegisterValidation("dose", func(fl validator.FieldLevel) bool {
		return model.ValidDose(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("failed to register dose validation: %w", err)
	}

	if err := v.RegisterValidation("caldate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateLayout, fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register caldate validation: %w", err)
	}

	return nil
}
