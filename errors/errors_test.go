package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Kind_Sentinels_Classify_With_Errors_Is(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(Validation("too big"), ErrValidation)
	req.ErrorIs(NotFound("no user"), ErrNotFound)
	req.ErrorIs(Conflict("self chat"), ErrConflict)
	req.ErrorIs(Auth(CodeWeakPassword, "weak", nil), ErrAuth)
	req.ErrorIs(Storage("write failed", nil), ErrStorage)

	req.NotErrorIs(Validation("too big"), ErrStorage)
}

func Test_Error_Unwraps_Its_Cause(t *testing.T) {
	req := require.New(t)

	cause := stderrors.New("disk full")
	err := Storage("write failed", cause)
	req.ErrorIs(err, cause)
	req.Contains(err.Error(), "disk full")
}

func Test_SignUp_Message_Mapping(t *testing.T) {
	req := require.New(t)

	cases := map[string]string{
		CodeEmailAlreadyInUse: "This email is already in use. Please try a different one.",
		CodeInvalidEmail:      "The email address is not valid.",
		CodeWeakPassword:      "The password is too weak. Please use a stronger password.",
		"auth/unknown":        "An error occurred during sign up. Please try again.",
	}
	for code, message := range cases {
		err := SignUpError(Auth(code, "provider failure", nil))
		req.Equal(message, err.Message)
		req.Equal(code, err.Code)
	}
}

func Test_Login_Collapses_Invalid_Credential_Family(t *testing.T) {
	req := require.New(t)

	for _, code := range []string{CodeUserNotFound, CodeWrongPassword, CodeInvalidCredential} {
		err := LoginError(Auth(code, "provider failure", nil))
		req.Equal("Invalid email or password. Please try again.", err.Message)
	}

	req.Equal("This account has been disabled. Please contact support.",
		LoginError(Auth(CodeUserDisabled, "disabled", nil)).Message)
	req.Equal("An error occurred during login. Please try again.",
		LoginError(stderrors.New("network down")).Message)
}
