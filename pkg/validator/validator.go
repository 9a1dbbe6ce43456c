package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	// notblank rejects whitespace-only strings as well as empty ones.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// jsonName reports fields by their JSON key, so nested errors read
// "address.postcode". Fields without a key, or hidden with json:"-", are
// still validated and reported by their Go name.
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// messages maps a validation tag to its user-facing text. A %s is replaced
// with the tag parameter.
var messages = map[string]string{
	"required": "is required",
	"notblank": "is required",
	"email":    "must be a valid email address",
	"min":      "must be at least %s characters",
	"max":      "must be at most %s characters",
	"oneof":    "must be one of: %s",
}

func message(fe validator.FieldError) string {
	text, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
	if strings.Contains(text, "%s") {
		return fmt.Sprintf(text, fe.Param())
	}
	return text
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("field '%s' %s", name, e.fields[name])
	}
	return strings.Join(parts, "; ")
}

// Fields maps dot-separated JSON paths to their messages. The map is a
// copy.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// Validate checks s against its `validate` tags.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace starts with the root type name.
		_, path, found := strings.Cut(fe.Namespace(), ".")
		if !found {
			path = fe.Field()
		}
		fields[path] = message(fe)
	}
	return &ValidationError{fields: fields}
}

// Check validates a single value against tag, e.g. "email".
func Check(value any, tag string) error {
	return validate.Var(value, tag)
}

// Decode reads one JSON object from the request body into a T and
// validates it. Unknown keys are ignored.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("invalid request body: body is empty")
		}
		return v, fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return v, errors.New("invalid request body: unexpected data after JSON object")
	}
	return v, Validate(&v)
}
