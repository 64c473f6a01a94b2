package todo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every problem found in one value.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrEmptyPatch is returned when an update would change nothing.
var ErrEmptyPatch = errors.New("nothing to update")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a task decoded from the backend.
func (t Task) Validate() error {
	return structErrors(validate.Struct(t), "")
}

// Validate checks a create request before it is sent.
func (d Draft) Validate() error {
	return structErrors(validate.Struct(d), "")
}

// Validate checks an update request before it is sent.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	return structErrors(validate.Struct(p), "")
}

// ValidateTasks validates each task and prefixes errors with its index.
func ValidateTasks(tasks []Task) error {
	var all ValidationErrors
	for i, task := range tasks {
		err := structErrors(validate.Struct(task), fmt.Sprintf("tasks[%d]", i))
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			all = append(all, verrs...)
		} else if err != nil {
			return err
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

func structErrors(err error, prefix string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Field()
		if prefix != "" {
			path = prefix + "." + path
		}
		out = append(out, &ValidationError{Path: path, Err: errors.New(tagMessage(fe))})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing required field"
	case "notblank":
		return "must not be blank"
	case "oneof":
		return fmt.Sprintf("invalid value %q, must be one of: %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
