package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return calendar.ValidClock(fl.Field().String())
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(calendar.DateLayout, fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			return weekdayIndex(fl.Field().String()) >= 0
		})
		validate = v
	})
	return validate
}

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s failed %s", e.Field, e.Tag)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func validateInput(input any) error {
	err := inputValidator().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &ValidationError{Field: first.Field(), Tag: first.Tag()}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func weekdayIndex(day string) int {
	day = strings.ToLower(strings.TrimSpace(day))
	for i, d := range weekdays {
		if d == day {
			return i
		}
	}
	return -1
}
