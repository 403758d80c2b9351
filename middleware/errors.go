package middleware

import "errors"

var (
	// ErrInvalidContext indicates the chain was executed without a context
	ErrInvalidContext = errors.New("invalid middleware context")

	// ErrNoResponse indicates the final handler returned without a response
	ErrNoResponse = errors.New("middleware chain produced no response")
)
