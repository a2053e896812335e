// This file parses and validates the year/month/unit query parameters shared
// by the summary, chart and API routes.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"netusage/internal/core"
)

// SelectionQuery is the raw selection from a query string. Zero values mean
// "use the session default".
type SelectionQuery struct {
	Year  int    `form:"year" validate:"omitempty,gt=0,lte=9999"`
	Month int    `form:"month" validate:"omitempty,min=1,max=12"`
	Unit  string `form:"unit" validate:"omitempty,oneof=MB GB TB"`
}

// FieldError is one invalid parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid parameter of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseSelection reads year, month and unit from q. Non-numeric year or
// month and out-of-range values yield a *ValidationError.
func ParseSelection(v *validator.Validate, q url.Values) (core.Selection, error) {
	var (
		sq     SelectionQuery
		fields []FieldError
	)
	for _, p := range []struct {
		name string
		dst  *int
	}{{"year", &sq.Year}, {"month", &sq.Month}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: p.name, Message: "Must be numeric"})
			continue
		}
		*p.dst = n
	}
	sq.Unit = strings.ToUpper(strings.TrimSpace(q.Get("unit")))

	if err := v.Struct(sq); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return core.Selection{}, fmt.Errorf("validate selection: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}
	if len(fields) > 0 {
		return core.Selection{}, &ValidationError{Fields: fields}
	}
	return core.Selection{Year: sq.Year, Month: sq.Month, Unit: core.Unit(sq.Unit)}, nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min", "gte":
		return "Must be at least " + e.Param()
	case "max", "lte":
		return "Must be at most " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
