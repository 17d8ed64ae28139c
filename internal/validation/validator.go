// Package validation validates request structs and path identifiers, converting failures to domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/lehuagavin/genslides/internal/errors"
)

// MaxIdentifierLength bounds slugs, slide ids, hashes and candidate ids.
const MaxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with JSON field names and the "ident" tag registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return IsIdentifier(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// IsIdentifier reports whether s is a valid slug/sid/hash/candidate id.
func IsIdentifier(s string) bool {
	return s != "" && len(s) <= MaxIdentifierLength && identifierPattern.MatchString(s)
}

// Identifier returns an invalid-request error when value is not a valid identifier.
// kind names the identifier in the message ("slug", "sid", ...).
func Identifier(kind, value string) error {
	if IsIdentifier(value) {
		return nil
	}
	return domainerrors.InvalidRequestf("Invalid %s: %q", kind, value)
}

// Identifiers validates kind/value pairs in order and returns the first failure.
func Identifiers(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := Identifier(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "ident":
		return fmt.Sprintf("must match [a-zA-Z0-9_-] and be at most %d characters", MaxIdentifierLength)
	case "dive":
		return "contains an invalid element"
	case "unique":
		return "must not contain duplicates"
	default:
		return "is invalid"
	}
}
