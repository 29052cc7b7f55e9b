package checklist

import (
	"errors"
	"fmt"
)

// ErrInvalidProfile indicates a malformed or out-of-range profile field. The
// request is rejected before any rule evaluation begins.
var ErrInvalidProfile = errors.New("invalid profile")

// FieldError names the offending profile field so the caller can correct it.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidProfile
}
