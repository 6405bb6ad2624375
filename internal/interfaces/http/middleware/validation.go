package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var setupValidatorOnce sync.Once

// SetupValidator configures gin's validator for CareHours requests. Errors
// report JSON (or form) field names, decimals validate as their string form
// and the "money" tag accepts non-negative amounts with at most two places.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("money", validateMoney)
	})
}

func fieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
	}
	return name
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

// FormatValidationErrors builds the 400 body. Binding failures that are not
// field validations, such as malformed JSON, carry no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Request validation failed", requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
			Code:    e.Tag(),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString("request_id")))
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"numeric":  "Must be numeric",
	"dive":     "Invalid list item",
	"money":    "Must be a non-negative amount with at most 2 decimal places",
}

var paramMessages = map[string]string{
	"len":      "Must be exactly %s characters",
	"oneof":    "Must be one of: %s",
	"gt":       "Must be greater than %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"datetime": "Must be a date in the format %s",
}

func validationMessage(e validator.FieldError) string {
	tag := e.Tag()
	if msg, ok := fixedMessages[tag]; ok {
		return msg
	}
	if format, ok := paramMessages[tag]; ok {
		return strings.Replace(format, "%s", e.Param(), 1)
	}
	switch tag {
	case "min", "max":
		bound := "at least "
		if tag == "max" {
			bound = "at most "
		}
		if e.Kind() == reflect.String {
			return "Must be " + bound + e.Param() + " characters"
		}
		return "Must be " + bound + e.Param()
	}
	return "Invalid value"
}
