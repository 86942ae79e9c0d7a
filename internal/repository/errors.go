package repository

import "errors"

var (
	ErrNotFound           = errors.New("repository: not found")
	ErrDuplicateCode      = errors.New("repository: code already in use")
	ErrInvalidCredentials = errors.New("repository: invalid credentials")
)
