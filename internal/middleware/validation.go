package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(jsonFieldName)

	// Money fields compare as numbers so gte/lte tags work on them
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fieldDecodeError(body, v, err)
	}
	return ValidateRequest(v)
}

// FieldDecodeError reports a JSON value that cannot be decoded into the named field
type FieldDecodeError struct {
	Field string
	Type  reflect.Type
	Err   error
}

func (e *FieldDecodeError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Err)
}

func (e *FieldDecodeError) Unwrap() error {
	return e.Err
}

// fieldDecodeError attaches the offending field to a decode error when it can be found.
// Errors raised by a field's own UnmarshalJSON carry no path, so top-level fields are
// decoded one at a time to locate them.
func fieldDecodeError(body []byte, v interface{}, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &FieldDecodeError{Field: typeErr.Field, Type: typeErr.Type, Err: err}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return err
	}

	rt := reflect.TypeOf(v)
	if rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct {
		return err
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil {
		return err
	}

	st := rt.Elem()
	for i := 0; i < st.NumField(); i++ {
		fld := st.Field(i)
		value, ok := raw[jsonFieldName(fld)]
		if !ok {
			continue
		}
		if json.Unmarshal(value, reflect.New(fld.Type).Interface()) != nil {
			return &FieldDecodeError{Field: jsonFieldName(fld), Type: fld.Type, Err: err}
		}
	}

	return err
}

func decodeMessage(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "Invalid value"
	}
	if t == decimalType {
		return "A valid number is required"
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required"
	case reflect.String:
		return "Not a valid string"
	case reflect.Slice:
		return "Expected a list of items"
	default:
		return "Invalid value"
	}
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format.
// Nested fields keep their path, e.g. items_data[1].quantity.
func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	var decodeErr *FieldDecodeError
	if errors.As(err, &decodeErr) {
		return append(errs, ValidationError{Field: decodeErr.Field, Message: decodeMessage(decodeErr.Type)})
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field:   fieldPath(e),
				Message: getErrorMessage(e),
			})
		}
	}

	return errs
}

func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "Ensure this list has at least " + e.Param() + " item(s)"
		}
		return "Value is too short"
	case "max":
		return "Ensure this field has no more than " + e.Param() + " characters"
	case "gte":
		return "Ensure this value is greater than or equal to " + e.Param()
	case "lte":
		return "Ensure this value is less than or equal to " + e.Param()
	case "gt":
		return "Ensure this value is greater than " + e.Param()
	case "lt":
		return "Ensure this value is less than " + e.Param()
	default:
		return "Invalid value"
	}
}
