/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses, WebSocket error events, and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Message and Content Errors
	ErrEmptyMessage:      {Code: ErrEmptyMessage, Message: "Message cannot be empty."},
	ErrMessageTooLong:    {Code: ErrMessageTooLong, Message: "Message is too long."},
	ErrAvatarSizeInvalid: {Code: ErrAvatarSizeInvalid, Message: "Avatar file is too large."},
	ErrAvatarTypeInvalid: {Code: ErrAvatarTypeInvalid, Message: "Avatar file type is not supported."},

	// 3xxx: Identity, Session, and Security Errors
	ErrUnauthenticated:      {Code: ErrUnauthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:            {Code: ErrForbidden, Message: "You cannot send messages as another user.", Status: http.StatusForbidden},
	ErrAlreadyAuthenticated: {Code: ErrAlreadyAuthenticated, Message: "This connection is already signed in."},
	ErrInvalidUsername:      {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:      {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "Account not found."},

	// 5xxx: Internal System Errors
	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrMessageStorage:      {Code: ErrMessageStorage, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
	ErrAvatarStorageFailed: {Code: ErrAvatarStorageFailed, Message: "Avatar upload failed. Please try again."},
}
