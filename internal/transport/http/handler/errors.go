package handler

// User-facing texts. Transport and storage details never reach these.
const (
	errInternalServer    = "Internal server error"
	errInvalidLogin      = "Invalid username or password"
	errEmailNotFound     = "Email not found"
	errInvalidEmail      = "Please enter a valid email address"
	errEmailSendFailed   = "Failed to send email. Please try again later."
	errTokenInvalid      = "Invalid or expired reset token"
	errPasswordsMismatch = "Passwords do not match"
	errPasswordRequired  = "Password is required"
	errPasswordTooShort  = "Password must be at least 6 characters"
	errPasswordTooLong   = "Password must be at most 72 bytes"
	errInvalidForm       = "Invalid form submission"
	errTitleRequired     = "Title is required"
	errUnauthorized      = "Unauthorized access"
	errTodoNotFound      = "Todo not found"

	msgLoggedOut     = "You have been logged out successfully"
	msgRegistered    = "Registration successful! Please login."
	msgResetLinkSent = "Password reset link has been sent to your email"
	msgPasswordReset = "Password reset successful! Please login."
	msgTodoCreated   = "Todo created successfully"
	msgTodoUpdated   = "Todo updated successfully"
	msgTodoDeleted   = "Todo deleted successfully"
)
