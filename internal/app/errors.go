package service

import "errors"

// ErrValidation rejects bad input before any store call.
var ErrValidation = errors.New("validation failed")
