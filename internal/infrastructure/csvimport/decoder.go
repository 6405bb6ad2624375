package csvimport

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Decoder copies row values into string fields tagged `csv:"column"` and
// checks them against their `validate` tags.
//
//	type line struct {
//		Provider string `csv:"provider" validate:"required"`
//		Hours    string `csv:"hours" validate:"required,numeric"`
//	}
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a decoder. The validator reports csv column names.
func NewDecoder() *Decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("csv"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return &Decoder{validate: v}
}

// Decode fills dst, which must be a pointer to a struct, and validates it.
// Validation failures come back as RowErrors.
func (d *Decoder) Decode(row Row, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("csvimport: decode target must be a struct pointer, got %T", dst)
	}
	sv := rv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		col := f.Tag.Get("csv")
		if col == "" || col == "-" || f.Type.Kind() != reflect.String || !sv.Field(i).CanSet() {
			continue
		}
		sv.Field(i).SetString(row.Get(col))
	}

	err := d.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(RowErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, RowError{
			Line:    row.Line,
			Column:  fe.Field(),
			Code:    codeForTag(fe.Tag()),
			Message: messageFor(fe),
		})
	}
	return out
}

func codeForTag(tag string) string {
	switch tag {
	case "required":
		return ErrCodeRequired
	case "gt", "gte", "lt", "lte", "min", "max":
		return ErrCodeOutOfRange
	default:
		return ErrCodeInvalidFormat
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "number", "numeric":
		return fmt.Sprintf("%q is not a number", fe.Value())
	case "datetime":
		return fmt.Sprintf("%q is not a date in %s format", fe.Value(), fe.Param())
	case "email":
		return fmt.Sprintf("%q is not an email address", fe.Value())
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
