package staart

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

func invalidInput(field string, err error) error {
	return errors.Wrap(err, errors.CategoryValidation, "invalid "+field).
		WithTextCode(TextCodeValidationFailed).
		WithCode(errors.CodeBadRequest)
}

func validateEmailAddress(v string) error {
	if err := validation.Validate(v, validation.Required, is.Email); err != nil {
		return invalidInput("email", err)
	}
	return nil
}

func validateText(field, v string) error {
	if err := validation.Validate(v, validation.Required, validation.Length(1, 255)); err != nil {
		return invalidInput(field, err)
	}
	return nil
}

func validateDomain(v string) error {
	if err := validation.Validate(v, validation.Required, is.Domain); err != nil {
		return invalidInput("domain", err)
	}
	return nil
}

func validateCountryCode(v string) error {
	if err := validation.Validate(v, validation.Required, is.CountryCode2); err != nil {
		return invalidInput("country code", err)
	}
	return nil
}
