package phone

import "github.com/go-playground/validator/v10"

// ValidationTag is the struct tag name registered by RegisterValidation.
const ValidationTag = "uae_phone"

// RegisterValidation installs the uae_phone tag on v.
// Empty strings pass so the tag composes with "required" and "omitempty".
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation(ValidationTag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValid(s)
	})
}
