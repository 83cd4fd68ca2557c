package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/go-playground/validator/v10"
)

const (
	sep = " and "
)

type Error struct {
	Error       bool
	FailedField string
	Tag         string
	Value       interface{}
}

type IXValidator interface {
	Validate(data interface{}) []Error
	Check(data interface{}) error
}

type XValidator struct {
	validator *validator.Validate
	metrics   *metrics.Metrics
}

func NewXValidator(metrics *metrics.Metrics) IXValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	for key, function := range valid {
		_ = v.RegisterValidation(key, function)
	}

	return &XValidator{
		validator: v,
		metrics:   metrics,
	}
}

// Check validates data and folds every failure into a single error, or returns nil.
func (x XValidator) Check(data interface{}) error {
	errs := x.Validate(data)
	if len(errs) == 0 {
		return nil
	}

	errMsgs := make([]string, 0, len(errs))
	for _, err := range errs {
		errMsgs = append(errMsgs, fmt.Sprintf("field '%s' failed on '%s'", err.FailedField, err.Tag))
		x.metrics.RecordValidationError(err.FailedField, err.Tag)
	}

	return errors.New(strings.Join(errMsgs, sep))
}

func (x XValidator) Validate(data interface{}) []Error {
	var validationErrors []Error

	errs := x.validator.Struct(data)
	if errs == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(errs, &fieldErrs) {
		return []Error{{Error: true, FailedField: "body", Tag: "invalid"}}
	}

	for _, err := range fieldErrs {
		var elem Error
		elem.FailedField = err.Field()
		elem.Tag = err.Tag()
		elem.Value = err.Value()
		elem.Error = true
		validationErrors = append(validationErrors, elem)
	}
	return validationErrors
}
