package auth

import "errors"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidRole  = errors.New("token carries an unknown role")
)
