package service

import "errors"

var (
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyQuestion   = errors.New("question must not be empty")
)
