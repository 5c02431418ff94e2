package errors

import (
	"fmt"
)

var (
	ErrInvalidTask  = fmt.Errorf("invalid task")
	ErrNotFound     = fmt.Errorf("not found")
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrInvalidState = fmt.Errorf("invalid state")
	ErrInvalidArg   = fmt.Errorf("invalid arg")
	ErrNotSupported = fmt.Errorf("not supported")
	ErrMaxExceeded  = fmt.Errorf("max length exceeded")
	ErrExecution    = fmt.Errorf("execution failed")
)
