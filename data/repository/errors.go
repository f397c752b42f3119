package repository

import "errors"

var (
	ErrAlreadyExists = errors.New("row already exists in preferences store")
	ErrNotFound      = errors.New("row not found in preferences store")
)
