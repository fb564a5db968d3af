package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateListing checks l against the listing invariants and returns the
// first violation as a *ValidationError.
func ValidateListing(l *Listing) error {
	if len(l.ImageURLs) == 0 {
		return Invalid("imageUrls", "you must upload at least one image")
	}
	if len(l.ImageURLs) > MaxImages {
		return Invalid("imageUrls", fmt.Sprintf("you can upload only %d images per listing", MaxImages))
	}
	if l.Offer && l.DiscountPrice >= l.RegularPrice {
		return Invalid("discountPrice", "discount price must be lower than regular price")
	}
	return ValidateStruct(l)
}

// ValidateStruct runs the validate tags of v and reports the first failure
// under the field's JSON name.
func ValidateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return Invalid(fieldName(fe), describe(fe))
	}
	return Invalid("", err.Error())
}

func fieldName(fe validator.FieldError) string {
	// imageUrls[2] -> imageUrls
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
