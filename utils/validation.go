package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct runs the struct's validate tags and folds the result into the
// error taxonomy: a missing required field wins over any other failure.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Validation(CodeValidationFailed, err.Error())
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &AppError{
				Kind:    KindValidation,
				Code:    CodeMissingFields,
				Message: "All fields are required",
				Details: fe.Field(),
			}
		}
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeValidationFailed,
		Message: "Invalid request",
		Details: strings.Join(fields, ", "),
	}
}
