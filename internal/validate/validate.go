// Package validate checks inbound payloads against the route schemas and
// reports failures as a list of field errors (location, message, type tag).
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// FieldError describes one failing input location.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Errors is a non-empty list of field errors. It is returned as an error from
// handlers and rendered as HTTP 422.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		loc := make([]string, 0, len(fe.Loc))
		for _, l := range fe.Loc {
			loc = append(loc, fmt.Sprint(l))
		}
		parts = append(parts, strings.Join(loc, ".")+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends one field error.
func (e *Errors) Add(msg, typ string, loc ...any) {
	*e = append(*e, FieldError{Loc: loc, Msg: msg, Type: typ})
}

// Err returns e as an error, or nil when nothing failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// QueryInt parses an optional integer query parameter. It returns nil when the
// parameter is absent and records a field error when it is not an integer.
func (e *Errors) QueryInt(c echo.Context, name string) *int {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.Add("Input should be a valid integer, unable to parse string as an integer", "int_parsing", "query", name)
		return nil
	}
	return &n
}

// PathInt parses a required integer path parameter.
func (e *Errors) PathInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		e.Add("Input should be a valid integer, unable to parse string as an integer", "int_parsing", "path", name)
		return 0
	}
	return n
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate runs the struct rules on i. Non-struct values (free-form objects)
// carry no rules and always pass.
func (v *Validator) Validate(i any) error {
	rv := reflect.Indirect(reflect.ValueOf(i))
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := v.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	var out Errors
	for _, fe := range verrs {
		msg, typ := describe(fe)
		out.Add(msg, typ, bodyLoc(fe.Namespace())...)
	}
	return out
}

// bodyLoc turns "PatientCreate.email" into ["body", "email"].
func bodyLoc(namespace string) []any {
	segs := strings.Split(namespace, ".")
	loc := []any{"body"}
	for _, s := range segs[1:] {
		loc = append(loc, s)
	}
	return loc
}

func describe(fe validator.FieldError) (msg, typ string) {
	switch fe.Tag() {
	case "required":
		return "Field required", "missing"
	case "email":
		return "value is not a valid email address", "value_error"
	default:
		return fmt.Sprintf("Value failed the %q rule", fe.Tag()), "value_error"
	}
}

// Body decodes the JSON request body into dst and validates it. Decoding and
// rule failures are returned together as Errors.
func Body(c echo.Context, dst any) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Errors{{Loc: []any{"body"}, Msg: "Field required", Type: "missing"}}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return notAnObject()
	}

	var out Errors
	if err := json.Unmarshal(trimmed, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return decodeError(err)
		}
		// Unmarshal fills the remaining fields after a type mismatch, so the
		// rules below still see everything that decoded.
		if out = fieldTypeErrors(trimmed, dst); len(out) == 0 {
			out = decodeError(err)
		}
	}

	if err := c.Validate(dst); err != nil {
		var ruleErrs Errors
		if !errors.As(err, &ruleErrs) {
			return err
		}
		out = merge(out, ruleErrs)
	}
	return out.Err()
}

// fieldTypeErrors decodes each top-level member of data on its own and reports
// every member whose JSON type does not fit the matching field of dst.
func fieldTypeErrors(data []byte, dst any) Errors {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var members map[string]json.RawMessage
	if t == nil || t.Kind() != reflect.Struct || json.Unmarshal(data, &members) != nil {
		return nil
	}

	var out Errors
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if !f.IsExported() || name == "" || name == "-" {
			continue
		}
		raw, ok := members[name]
		if !ok {
			continue
		}

		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(raw, reflect.New(f.Type).Interface()); !errors.As(err, &typeErr) {
			continue
		}
		loc := []any{"body", name}
		if typeErr.Field != "" {
			for _, s := range strings.Split(typeErr.Field, ".") {
				loc = append(loc, s)
			}
		}
		msg, typ := typeMismatch(typeErr.Type)
		out.Add(msg, typ, loc...)
	}
	return out
}

// merge appends the rule failures to the type failures, dropping rule failures
// on a field that already failed to decode.
func merge(typeErrs, ruleErrs Errors) Errors {
	failed := make(map[string]bool, len(typeErrs))
	for _, fe := range typeErrs {
		if len(fe.Loc) > 1 {
			failed[fmt.Sprint(fe.Loc[1])] = true
		}
	}

	out := typeErrs
	for _, fe := range ruleErrs {
		if len(fe.Loc) > 1 && failed[fmt.Sprint(fe.Loc[1])] {
			continue
		}
		out = append(out, fe)
	}
	return out
}

func notAnObject() Errors {
	return Errors{{
		Loc:  []any{"body"},
		Msg:  "Input should be a valid dictionary or object to extract fields from",
		Type: "model_attributes_type",
	}}
}

func decodeError(err error) Errors {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Errors{{Loc: []any{"body", syntaxErr.Offset}, Msg: "JSON decode error", Type: "json_invalid"}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return notAnObject()
		}
		loc := []any{"body"}
		for _, s := range strings.Split(typeErr.Field, ".") {
			loc = append(loc, s)
		}
		msg, typ := typeMismatch(typeErr.Type)
		return Errors{{Loc: loc, Msg: msg, Type: typ}}
	}

	return Errors{{Loc: []any{"body"}, Msg: err.Error(), Type: "json_invalid"}}
}

func typeMismatch(t reflect.Type) (msg, typ string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "Input should be a valid string", "string_type"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Input should be a valid integer", "int_type"
	case reflect.Bool:
		return "Input should be a valid boolean", "bool_type"
	case reflect.Map, reflect.Struct:
		return "Input should be a valid dictionary", "dict_type"
	default:
		return "Input has the wrong type", "type_error"
	}
}
