package validation

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vinodismyname/emcregs/pkg/pagination"
)

var (
	v      *validator.Validate
	vOnce  sync.Once
	cfrSec = regexp.MustCompile(`^[0-9]+\.[0-9]+[a-z]?$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New()
		// Report fields by their JSON argument names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Custom: CFR section number such as 15.209 or 18.305
		_ = v.RegisterValidation("cfr_section", func(fl validator.FieldLevel) bool {
			return cfrSec.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// ValidateStruct validates a struct and returns a user-friendly message naming
// the accepted values. Returns empty string when valid.
func ValidateStruct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "VALIDATION: invalid inputs"
	}
	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("VALIDATION: %s is required", field)
	case "oneof":
		return fmt.Sprintf("VALIDATION: %s must be one of: %s (got %q)",
			field, strings.Join(strings.Fields(fe.Param()), ", "), fmt.Sprint(fe.Value()))
	case "cfr_section":
		return "VALIDATION: section must look like 15.209 or 18.305"
	case "cursor":
		return "CURSOR_INVALID: failed to decode cursor; restart the listing without a cursor"
	case "min", "max", "gte", "lte", "gt", "lt":
		return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("VALIDATION: invalid %s", field)
}
