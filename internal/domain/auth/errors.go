package auth

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmployeeIDRequired = errors.New("token carries no employee")
)
