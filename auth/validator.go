package auth

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	qerrors "github.com/quickchat/sync-core/errors"
)

var validate = validator.New()

type signUpRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// validateSignUp checks account-creation input before any cryptographic
// or storage work, and translates failures into provider codes.
func validateSignUp(email, password string) error {
	err := validate.Struct(signUpRequest{Email: email, Password: password})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Email":
				return qerrors.Auth(qerrors.CodeInvalidEmail, "invalid email", err)
			case "Password":
				return qerrors.Auth(qerrors.CodeWeakPassword, "weak password", err)
			}
		}
	}
	return qerrors.Auth("", "invalid sign up request", err)
}
