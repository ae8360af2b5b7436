package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrModuleNotFound     = errors.New("module not found")
	ErrRecordNotFound     = errors.New("record not found")
)
