package session

import (
	"fmt"
	"regexp"

	validation "github.com/jellydator/validation"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

func (r LoginRequest) validate() error {
	return invalid(validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			validation.Match(emailPattern).Error("email must be a valid email address"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
	))
}

func (r RegisterRequest) validate() error {
	return invalid(validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			validation.Match(emailPattern).Error("email must be a valid email address"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(minPasswordLength, 0).Error("password must be at least 8 characters"),
		),
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255),
		),
	))
}

func (u ProfileUpdate) validate() error {
	return invalid(validation.ValidateStruct(&u,
		validation.Field(&u.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255),
		),
	))
}

func (c PasswordChange) validate() error {
	return invalid(validation.ValidateStruct(&c,
		validation.Field(&c.CurrentPassword, validation.Required.Error("current password is required")),
		validation.Field(&c.NewPassword,
			validation.Required.Error("new password is required"),
			validation.Length(minPasswordLength, 0).Error("password must be at least 8 characters"),
		),
		validation.Field(&c.ConfirmPassword,
			validation.Required.Error("password confirmation is required"),
			validation.In(c.NewPassword).Error("passwords do not match"),
		),
	))
}
