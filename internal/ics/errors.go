package ics

import "errors"

// ErrInvalidConfig indicates an unusable frequency, month count, or date.
var ErrInvalidConfig = errors.New("invalid calendar config")
