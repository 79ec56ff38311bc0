package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "mktpulse/internal/errors"
)

// QueryBinder decodes query parameters into request structs and validates
// them. Fields are addressed by their `query` tag; an absent parameter takes
// the `default` tag. Slices accept repeated or comma-separated values.
type QueryBinder struct {
	validator *validator.Validate
}

// NewQueryBinder creates a binder whose validation messages use query names
func NewQueryBinder() *QueryBinder {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &QueryBinder{validator: v}
}

// Bind fills dst, which must be a pointer to a struct, from r's query
// string. Decoding and validation failures are returned together as a
// single *errors.APIError.
func (b *QueryBinder) Bind(r *http.Request, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target must be a pointer to struct, got %T", dst)
	}

	var fieldErrs []apierrors.ValidationError
	decodeStruct(rv.Elem(), r.URL.Query(), &fieldErrs)
	if len(fieldErrs) > 0 {
		return apierrors.NewValidationErrors(fieldErrs)
	}

	return b.Validate(dst)
}

// Validate runs the struct validation rules on v
func (b *QueryBinder) Validate(v any) error {
	err := b.validator.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	fieldErrs := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(fieldErrs)
}

func decodeStruct(rv reflect.Value, query url.Values, errs *[]apierrors.ValidationError) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)

		if field.Anonymous && fv.Kind() == reflect.Struct {
			decodeStruct(fv, query, errs)
			continue
		}

		name := strings.SplitN(field.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" || !fv.CanSet() {
			continue
		}

		values, ok := query[name]
		if !ok || (len(values) == 1 && values[0] == "") {
			def, hasDefault := field.Tag.Lookup("default")
			if !hasDefault {
				continue
			}
			values = []string{def}
		}

		if err := setField(fv, values); err != nil {
			*errs = append(*errs, apierrors.ValidationError{Field: name, Message: fmt.Sprintf("%s %s", name, err)})
		}
	}
}

func setField(fv reflect.Value, values []string) error {
	raw := strings.TrimSpace(values[0])

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.New("must be a valid integer")
		}
		fv.SetInt(n)
	case reflect.Float64, reflect.Float32:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("must be a valid number")
		}
		fv.SetFloat(f)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("must be true or false")
		}
		fv.SetBool(v)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("has unsupported type %s", fv.Type())
		}
		var items []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("has unsupported type %s", fv.Type())
	}
	return nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
