package errors

// Provider error codes reported by the credential service. The naming
// follows the auth provider's own code namespace so a remote-backed
// implementation can pass its codes through unchanged.
const (
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserDisabled      = "auth/user-disabled"
)

// SignUpError wraps a credential failure with the user-facing message
// shown on the sign-up flow.
func SignUpError(err error) *Error {
	code := CodeOf(err)
	switch code {
	case CodeEmailAlreadyInUse:
		return Auth(code, "This email is already in use. Please try a different one.", err)
	case CodeInvalidEmail:
		return Auth(code, "The email address is not valid.", err)
	case CodeWeakPassword:
		return Auth(code, "The password is too weak. Please use a stronger password.", err)
	default:
		return Auth(code, "An error occurred during sign up. Please try again.", err)
	}
}

// LoginError wraps a credential failure with the user-facing message shown
// on the login flow. The whole invalid-credential family collapses to one
// generic message to prevent account enumeration.
func LoginError(err error) *Error {
	code := CodeOf(err)
	switch code {
	case CodeUserNotFound, CodeWrongPassword, CodeInvalidCredential:
		return Auth(code, "Invalid email or password. Please try again.", err)
	case CodeInvalidEmail:
		return Auth(code, "The email address is not valid.", err)
	case CodeUserDisabled:
		return Auth(code, "This account has been disabled. Please contact support.", err)
	default:
		return Auth(code, "An error occurred during login. Please try again.", err)
	}
}

// LogoutError wraps a remote sign-out failure.
func LogoutError(err error) *Error {
	return Auth("", "An error occurred during logout. Please try again.", err)
}
