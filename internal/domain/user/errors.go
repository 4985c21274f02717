package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrActorMissing            = errors.New("no authenticated user in context")
)
