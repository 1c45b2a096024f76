/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients, including error events
delivered over the WebSocket protocol.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Message and Content Errors
const (
	// ErrEmptyMessage indicates a message submission whose body is empty after trimming.
	ErrEmptyMessage = 2001

	// ErrMessageTooLong indicates that the message body exceeded the maximum length limit.
	ErrMessageTooLong = 2002

	// ErrAvatarSizeInvalid indicates an avatar upload with a missing or excessive file size.
	ErrAvatarSizeInvalid = 2101

	// ErrAvatarTypeInvalid indicates an avatar upload with a disallowed file type.
	ErrAvatarTypeInvalid = 2102
)

// 3xxx: Identity, Session, and Security Errors
const (
	// ErrUnauthenticated indicates a missing, malformed, or expired credential.
	ErrUnauthenticated = 3001

	// ErrForbidden indicates an attempt to act under an identity other than the bound one.
	ErrForbidden = 3002

	// ErrAlreadyAuthenticated indicates an authenticate request on a connection that is already bound.
	ErrAlreadyAuthenticated = 3003

	// ErrInvalidUsername indicates a username that fails format validation.
	ErrInvalidUsername = 3101

	// ErrInvalidPassword indicates a password that fails length validation.
	ErrInvalidPassword = 3102

	// ErrUserAlreadyExists indicates a registration attempt for a taken username.
	ErrUserAlreadyExists = 3103

	// ErrInvalidCredentials indicates a login attempt with a wrong username or password.
	ErrInvalidCredentials = 3104

	// ErrUserNotFound indicates that the referenced account does not exist.
	ErrUserNotFound = 3105
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrMessageStorage indicates that the message persistence collaborator failed.
	ErrMessageStorage = 5001

	// ErrAvatarStorageFailed indicates that the avatar storage collaborator failed.
	ErrAvatarStorageFailed = 5002
)
